package music

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// RepeatPolicy controls how often a song may be chosen.
type RepeatPolicy int

const (
	// UniquePerRegion never repeats a song inside one region, but the same
	// song may fill another region.
	UniquePerRegion RepeatPolicy = iota
	// UniquePerRun uses every song at most once per run. Songs already on
	// the target track count as used.
	UniquePerRun
	// RepeatAllowed lets a song follow itself.
	RepeatAllowed
)

// ParseRepeatPolicy converts "region", "run" or "allow" to a RepeatPolicy.
func ParseRepeatPolicy(s string) (RepeatPolicy, error) {
	switch s {
	case "region":
		return UniquePerRegion, nil
	case "run":
		return UniquePerRun, nil
	case "allow":
		return RepeatAllowed, nil
	}
	return 0, fmt.Errorf("music: unknown repeat policy %q (use region, run, or allow)", s)
}

func (p RepeatPolicy) String() string {
	switch p {
	case UniquePerRegion:
		return "region"
	case UniquePerRun:
		return "run"
	case RepeatAllowed:
		return "allow"
	}
	return fmt.Sprintf("RepeatPolicy(%d)", int(p))
}

// Options tunes how regions are filled. The zero value packs songs back to
// back from the start of each region with one attempt per region.
type Options struct {
	// Repeat decides whether songs may be reused.
	Repeat RepeatPolicy
	// Padding is the minimum gap between placements, and around existing
	// clips when carving regions.
	Padding time.Duration
	// MaxGap, when positive, stops filling a region once the placed songs
	// plus one MaxGap each would cover it.
	MaxGap time.Duration
	// Trials is how many fills are attempted per region; the one leaving
	// the least unused time wins.
	Trials int
	// Spread re-lays placements with equal gaps around them.
	Spread bool
}

// Selector draws songs from a pool into regions.
type Selector struct {
	src   Source
	opts  Options
	taken map[string]bool
}

// NewSelector creates a selector. A nil src uses a randomly seeded source.
func NewSelector(src Source, opts Options) *Selector {
	if src == nil {
		src = NewSource(rand.Uint64())
	}
	return &Selector{
		src:   src,
		opts:  opts,
		taken: make(map[string]bool),
	}
}

// Exclude marks songs as already used. It only has an effect under
// UniquePerRun.
func (s *Selector) Exclude(songs ...Song) {
	if s.opts.Repeat != UniquePerRun {
		return
	}
	for _, song := range songs {
		s.taken[song.key()] = true
	}
}

// Fill chooses placements for one region and returns them in time order
// together with the time left unused.
func (s *Selector) Fill(region Span, pool []Song) ([]Placement, time.Duration) {
	trials := s.opts.Trials
	if trials < 1 {
		trials = 1
	}

	var best []Placement
	bestLeft := region.Len()
	for t := 0; t < trials; t++ {
		placed := s.fillOnce(region, pool)
		if left := leftover(region, placed); t == 0 || left < bestLeft {
			best, bestLeft = placed, left
		}
		if bestLeft == 0 {
			break
		}
	}

	if s.opts.Repeat == UniquePerRun {
		for _, p := range best {
			s.taken[p.Song.key()] = true
		}
	}
	if s.opts.Spread {
		best = s.spread(region, best)
	}
	return best, bestLeft
}

// fillOnce performs a single randomized fill. A draw that does not fit is
// dropped for the rest of the region: the free space only shrinks.
func (s *Selector) fillOnce(region Span, pool []Song) []Placement {
	work := s.candidates(pool)

	var placed []Placement
	var total time.Duration
	cursor := region.Start
	for len(work) > 0 {
		if s.opts.MaxGap > 0 && len(placed) > 0 &&
			total+time.Duration(len(placed))*s.opts.MaxGap >= region.Len() {
			break
		}

		i := s.src.Intn(len(work))
		song := work[i]
		if cursor+song.Length > region.End {
			work = append(work[:i], work[i+1:]...)
			continue
		}

		placed = append(placed, Placement{Song: song, Start: cursor})
		total += song.Length
		cursor += song.Length + s.opts.Padding
		if s.opts.Repeat != RepeatAllowed {
			work = append(work[:i], work[i+1:]...)
		}
	}
	return placed
}

// candidates returns the drawable songs: positive length, not taken, one
// entry per song.
func (s *Selector) candidates(pool []Song) []Song {
	seen := make(map[string]bool, len(pool))
	work := make([]Song, 0, len(pool))
	for _, song := range pool {
		k := song.key()
		if song.Length <= 0 || s.taken[k] || seen[k] {
			continue
		}
		seen[k] = true
		work = append(work, song)
	}
	return work
}

func (s *Selector) spread(region Span, placed []Placement) []Placement {
	if len(placed) == 0 {
		return placed
	}
	// Whole milliseconds keep the starts on the project's clock resolution.
	gap := (leftover(region, placed) / time.Duration(len(placed)+1)).Truncate(time.Millisecond)
	if gap < s.opts.Padding {
		return placed
	}

	out := make([]Placement, len(placed))
	at := region.Start + gap
	for i, p := range placed {
		out[i] = Placement{Song: p.Song, Start: at}
		at += p.Song.Length + gap
	}
	return out
}

func leftover(region Span, placed []Placement) time.Duration {
	left := region.Len()
	for _, p := range placed {
		left -= p.Song.Length
	}
	return left
}
