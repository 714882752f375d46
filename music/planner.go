package music

import (
	"errors"
	"log/slog"
	"sort"
	"time"
)

// Input is everything the planner needs from a project.
type Input struct {
	// Markers are the project's markers in any order.
	Markers []Marker
	// Timeline is the full project extent.
	Timeline Span
	// Existing are the spans already occupied on the target track.
	Existing []Span
	// Pool holds the candidate songs.
	Pool []Song
	// Used are songs already on the target track.
	Used []Song
}

// Fill is the outcome for one region.
type Fill struct {
	Region     Region
	Placements []Placement
	Leftover   time.Duration
}

// Plan is the result of a planning run.
type Plan struct {
	// Regions lists every carved region in time order, filled or not.
	Regions []Fill
	// Placements lists all new placements in time order.
	Placements []Placement
	// Consumed are the real markers that bounded a processed region.
	Consumed []Marker
	// Problems holds recoverable region-level conditions.
	Problems []error
}

// Err reports why the plan would change nothing: ErrEmptyPool when there
// were no songs, ErrNoLocations when no region survived and ErrNoPlacements
// when nothing fit. It returns nil for a plan with placements.
func (p *Plan) Err() error {
	for _, err := range p.Problems {
		if errors.Is(err, ErrEmptyPool) {
			return ErrEmptyPool
		}
	}
	if len(p.Regions) == 0 {
		return ErrNoLocations
	}
	if len(p.Placements) == 0 {
		return ErrNoPlacements
	}
	return nil
}

// Planner turns markers and a song pool into placements.
type Planner struct {
	Source  Source
	Options Options
	Logger  *slog.Logger
}

// Plan builds regions from the input markers, carves them around existing
// clips and fills them with songs. It never fails: every condition it can
// skip past is recorded in Plan.Problems.
func (p *Planner) Plan(in Input) *Plan {
	log := p.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	plan := &Plan{}
	regions, problems := BuildRegions(in.Markers, in.Timeline)
	plan.Problems = append(plan.Problems, problems...)
	for _, err := range problems {
		log.Warn("skipping region", "err", err)
	}

	var carved []Region
	for _, r := range regions {
		plan.Consumed = appendReal(plan.Consumed, r.From, r.To)

		pieces := carve(r, in.Existing, p.Options.Padding)
		if len(pieces) == 0 {
			plan.Problems = append(plan.Problems, &RegionError{Region: r.Span, Err: ErrRegionOccupied})
			log.Debug("region fully occupied", "region", r.Span.String())
			continue
		}
		carved = append(carved, pieces...)
	}
	log.Debug("regions ready", "paired", len(regions), "carved", len(carved))

	if len(in.Pool) == 0 {
		plan.Problems = append(plan.Problems, ErrEmptyPool)
		for _, r := range carved {
			plan.Regions = append(plan.Regions, Fill{Region: r, Leftover: r.Len()})
		}
		return plan
	}

	sel := NewSelector(p.Source, p.Options)
	sel.Exclude(in.Used...)

	// Shortest regions first, so songs that only fit there are not spent
	// elsewhere.
	order := make([]Region, len(carved))
	copy(order, carved)
	sort.SliceStable(order, func(i, j int) bool { return order[i].Len() < order[j].Len() })

	for _, r := range order {
		placed, left := sel.Fill(r.Span, in.Pool)
		if len(placed) == 0 {
			plan.Problems = append(plan.Problems, &RegionError{Region: r.Span, Err: ErrNoFittingCandidate})
			log.Debug("no song fits", "region", r.Span.String())
		} else {
			log.Debug("filled region", "region", r.Span.String(), "songs", len(placed), "leftover", left)
		}
		plan.Regions = append(plan.Regions, Fill{Region: r, Placements: placed, Leftover: left})
		plan.Placements = append(plan.Placements, placed...)
	}

	sort.SliceStable(plan.Regions, func(i, j int) bool {
		return plan.Regions[i].Region.Start < plan.Regions[j].Region.Start
	})
	sort.SliceStable(plan.Placements, func(i, j int) bool {
		return plan.Placements[i].Start < plan.Placements[j].Start
	})
	return plan
}

func appendReal(dst []Marker, markers ...Marker) []Marker {
	for _, m := range markers {
		if !m.Virtual {
			dst = append(dst, m)
		}
	}
	return dst
}

// Remaining returns the real markers that were not consumed, in their
// original order. Markers are matched by Index.
func Remaining(markers, consumed []Marker) []Marker {
	used := make(map[int]bool, len(consumed))
	for _, m := range consumed {
		used[m.Index] = true
	}

	var out []Marker
	for _, m := range markers {
		if m.Virtual || used[m.Index] {
			continue
		}
		out = append(out, m)
	}
	return out
}
