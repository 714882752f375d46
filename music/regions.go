package music

import (
	"sort"
	"time"
)

// BuildRegions pairs markers into regions.
//
// Markers are sorted by time and consumed two at a time. An odd marker out
// is paired with a virtual marker at the end of the timeline; with no
// markers at all the whole timeline becomes a single region. Pairs that do
// not move forward in time are skipped and reported as *RegionError
// wrapping ErrInvalidMarkerOrder.
func BuildRegions(markers []Marker, timeline Span) ([]Region, []error) {
	sorted := make([]Marker, len(markers), len(markers)+2)
	copy(sorted, markers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At < sorted[j].At
	})

	switch {
	case len(sorted) == 0:
		sorted = append(sorted, virtualMarker(timeline.Start), virtualMarker(timeline.End))
	case len(sorted)%2 == 1:
		sorted = append(sorted, virtualMarker(timeline.End))
	}

	var regions []Region
	var problems []error
	for i := 0; i+1 < len(sorted); i += 2 {
		r := Region{
			Span: Span{Start: sorted[i].At, End: sorted[i+1].At},
			From: sorted[i],
			To:   sorted[i+1],
		}
		if r.Start >= r.End {
			problems = append(problems, &RegionError{Region: r.Span, Err: ErrInvalidMarkerOrder})
			continue
		}
		regions = append(regions, r)
	}

	return regions, problems
}

func virtualMarker(at time.Duration) Marker {
	return Marker{At: at, Index: -1, Virtual: true}
}

// Carve removes occupied time from every region. Each occupied span is
// grown by padding on both sides before it is cut out; what survives is
// returned as regions that keep their original markers.
func Carve(regions []Region, occupied []Span, padding time.Duration) []Region {
	var out []Region
	for _, r := range regions {
		out = append(out, carve(r, occupied, padding)...)
	}
	return out
}

func carve(r Region, occupied []Span, padding time.Duration) []Region {
	pieces := []Span{r.Span}
	for _, o := range occupied {
		blocked := Span{Start: o.Start - padding, End: o.End + padding}

		var next []Span
		for _, p := range pieces {
			if !p.Overlaps(blocked) {
				next = append(next, p)
				continue
			}
			if p.Start < blocked.Start {
				next = append(next, Span{Start: p.Start, End: blocked.Start})
			}
			if p.End > blocked.End {
				next = append(next, Span{Start: blocked.End, End: p.End})
			}
		}
		pieces = next
	}

	out := make([]Region, 0, len(pieces))
	for _, p := range pieces {
		out = append(out, Region{Span: p, From: r.From, To: r.To})
	}
	return out
}
