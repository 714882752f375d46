package music

import "math/rand/v2"

// Source picks pool indexes for the selector.
// Intn must return a value in [0, n) for n > 0.
type Source interface {
	Intn(n int) int
}

// NewSource returns a pseudo-random Source. Equal seeds, zero included,
// give equal sequences.
func NewSource(seed uint64) Source {
	return randSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

type randSource struct {
	r *rand.Rand
}

func (s randSource) Intn(n int) int { return s.r.IntN(n) }

// SequenceSource replays a fixed list of indexes, each reduced modulo n.
// Once the list is exhausted it keeps returning 0.
type SequenceSource struct {
	Indexes []int
	pos     int
}

// Intn returns the next index in the sequence.
func (s *SequenceSource) Intn(n int) int {
	if s.pos >= len(s.Indexes) {
		return 0
	}
	v := s.Indexes[s.pos]
	s.pos++
	return ((v % n) + n) % n
}
