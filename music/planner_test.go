package music

import (
	"errors"
	"testing"
)

func hasProblem(problems []error, target error) bool {
	for _, err := range problems {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func TestPlannerPlan(t *testing.T) {
	p := &Planner{Source: &SequenceSource{}}
	markers := markersAt(10, 5, 30)

	plan := p.Plan(Input{
		Markers:  markers,
		Timeline: Span{0, sec(40)},
		Pool:     []Song{song("a", 3)},
	})

	if len(plan.Problems) != 0 || plan.Err() != nil {
		t.Fatalf("Plan() problems = %v, Err() = %v; want none", plan.Problems, plan.Err())
	}
	checkPlacements(t, plan.Placements, []wantPlacement{{"a", sec(5)}, {"a", sec(30)}})

	if len(plan.Regions) != 2 {
		t.Fatalf("got %d regions, want 2", len(plan.Regions))
	}
	if plan.Regions[0].Region.Start != sec(5) || plan.Regions[1].Region.Start != sec(30) {
		t.Errorf("regions not in time order: %v, %v", plan.Regions[0].Region.Span, plan.Regions[1].Region.Span)
	}
	if plan.Regions[1].Leftover != sec(7) {
		t.Errorf("second region leftover = %v, want %v", plan.Regions[1].Leftover, sec(7))
	}

	if len(plan.Consumed) != 3 {
		t.Errorf("consumed %d markers, want 3", len(plan.Consumed))
	}
	if rest := Remaining(markers, plan.Consumed); len(rest) != 0 {
		t.Errorf("Remaining() = %v, want none", rest)
	}
}

func TestPlannerPlan_KeepsDegenerateMarkers(t *testing.T) {
	p := &Planner{Source: &SequenceSource{}}
	markers := markersAt(5, 5, 7, 9)

	plan := p.Plan(Input{
		Markers:  markers,
		Timeline: Span{0, sec(20)},
		Pool:     []Song{song("a", 1)},
	})

	if !hasProblem(plan.Problems, ErrInvalidMarkerOrder) {
		t.Errorf("Plan() problems = %v, want ErrInvalidMarkerOrder", plan.Problems)
	}

	rest := Remaining(markers, plan.Consumed)
	if len(rest) != 2 || rest[0].Index != 0 || rest[1].Index != 1 {
		t.Errorf("Remaining() = %v, want markers 0 and 1", rest)
	}
}

func TestPlannerPlan_OccupiedRegion(t *testing.T) {
	p := &Planner{Source: &SequenceSource{}}
	markers := markersAt(0, 10)

	plan := p.Plan(Input{
		Markers:  markers,
		Timeline: Span{0, sec(20)},
		Existing: []Span{{0, sec(10)}},
		Pool:     []Song{song("a", 3)},
	})

	if !hasProblem(plan.Problems, ErrRegionOccupied) {
		t.Errorf("Plan() problems = %v, want ErrRegionOccupied", plan.Problems)
	}
	if len(plan.Placements) != 0 {
		t.Errorf("placed %v into an occupied region", plan.Placements)
	}
	if !errors.Is(plan.Err(), ErrNoLocations) {
		t.Errorf("Err() = %v, want ErrNoLocations", plan.Err())
	}
	if rest := Remaining(markers, plan.Consumed); len(rest) != 0 {
		t.Errorf("Remaining() = %v, want none", rest)
	}
}

func TestPlannerPlan_SkipsUsedSongs(t *testing.T) {
	a, b := song("a", 3), song("b", 3)
	p := &Planner{Source: &SequenceSource{}, Options: Options{Repeat: UniquePerRun}}

	plan := p.Plan(Input{
		Markers:  markersAt(0, 4),
		Timeline: Span{0, sec(20)},
		Pool:     []Song{a, b},
		Used:     []Song{a},
	})

	checkPlacements(t, plan.Placements, []wantPlacement{{"b", 0}})
}

func TestPlannerPlan_ShortestRegionFirst(t *testing.T) {
	p := &Planner{Source: &SequenceSource{}, Options: Options{Repeat: UniquePerRun}}

	plan := p.Plan(Input{
		Markers:  markersAt(0, 10, 20, 22),
		Timeline: Span{0, sec(30)},
		Pool:     []Song{song("a", 2)},
	})

	checkPlacements(t, plan.Placements, []wantPlacement{{"a", sec(20)}})

	var regErr *RegionError
	found := false
	for _, err := range plan.Problems {
		if errors.As(err, &regErr) && errors.Is(err, ErrNoFittingCandidate) {
			found = true
			if regErr.Region != (Span{0, sec(10)}) {
				t.Errorf("no-fit region = %v, want %v", regErr.Region, Span{0, sec(10)})
			}
		}
	}
	if !found {
		t.Errorf("Plan() problems = %v, want ErrNoFittingCandidate", plan.Problems)
	}
}

func TestPlannerPlan_EmptyPool(t *testing.T) {
	p := &Planner{}

	plan := p.Plan(Input{
		Markers:  markersAt(2, 8),
		Timeline: Span{0, sec(10)},
	})

	if !hasProblem(plan.Problems, ErrEmptyPool) {
		t.Errorf("Plan() problems = %v, want ErrEmptyPool", plan.Problems)
	}
	if len(plan.Placements) != 0 {
		t.Errorf("placed %v from an empty pool", plan.Placements)
	}
	if !errors.Is(plan.Err(), ErrEmptyPool) {
		t.Errorf("Err() = %v, want ErrEmptyPool", plan.Err())
	}
	if len(plan.Regions) != 1 || plan.Regions[0].Leftover != sec(6) {
		t.Errorf("regions = %+v, want one unfilled 6s region", plan.Regions)
	}
}

func TestPlannerPlan_NothingFits(t *testing.T) {
	p := &Planner{Source: &SequenceSource{}}

	plan := p.Plan(Input{
		Markers:  markersAt(0, 1),
		Timeline: Span{0, sec(10)},
		Pool:     []Song{song("a", 3)},
	})

	if !errors.Is(plan.Err(), ErrNoPlacements) {
		t.Errorf("Err() = %v, want ErrNoPlacements", plan.Err())
	}
}

func TestRemaining(t *testing.T) {
	markers := markersAt(1, 2, 3)
	consumed := []Marker{markers[1], {Index: -1, Virtual: true}}

	rest := Remaining(markers, consumed)
	if len(rest) != 2 || rest[0].Index != 0 || rest[1].Index != 2 {
		t.Errorf("Remaining() = %v, want markers 0 and 2", rest)
	}
}
