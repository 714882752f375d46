// Package music plans background-music placements on a project timeline.
//
// Markers are paired into regions, regions are carved around content that
// already sits on the target track, and songs drawn from a pool are packed
// into what is left. The package works purely on in-memory values; reading
// and writing the project file is the job of package shotcut.
package music

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors describing region-level conditions. None of them abort a
// plan; they are collected in Plan.Problems.
var (
	// ErrInvalidMarkerOrder indicates a pair of markers produced a region
	// with zero or negative length.
	ErrInvalidMarkerOrder = errors.New("music: invalid marker order")
	// ErrRegionOccupied indicates existing clips cover a region entirely.
	ErrRegionOccupied = errors.New("music: region occupied")
	// ErrNoFittingCandidate indicates no song in the pool fits a region.
	ErrNoFittingCandidate = errors.New("music: no fitting candidate")
	// ErrEmptyPool indicates there were no songs to choose from.
	ErrEmptyPool = errors.New("music: empty pool")

	// ErrNoLocations indicates the markers left nowhere to place songs.
	ErrNoLocations = errors.New("music: no valid locations")
	// ErrNoPlacements indicates no song could be placed anywhere.
	ErrNoPlacements = errors.New("music: no songs placed")
)

// RegionError ties a region-level condition to the span it happened in.
//
//	var regErr *music.RegionError
//	if errors.As(err, &regErr) {
//		fmt.Printf("skipped %s: %v\n", regErr.Region, regErr.Err)
//	}
type RegionError struct {
	// Region is the span the condition applies to.
	Region Span
	// Err is one of the package sentinel errors.
	Err error
}

// Error returns a string representation of the region error.
func (e *RegionError) Error() string {
	return fmt.Sprintf("music: region %s: %v", e.Region, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *RegionError) Unwrap() error { return e.Err }

// Marker is a point on the timeline that bounds a region.
type Marker struct {
	// At is the marker position from the start of the timeline.
	At time.Duration
	// Index is the marker's position in the project's marker list, or -1
	// for virtual markers.
	Index int
	// Virtual markers are synthesized at the timeline bounds to complete a
	// pair. They are never written back.
	Virtual bool
}

// Span is a half-open interval [Start, End) of timeline time.
type Span struct {
	Start time.Duration
	End   time.Duration
}

// Len returns the length of the span.
func (s Span) Len() time.Duration { return s.End - s.Start }

// Overlaps reports whether the two spans share any time.
func (s Span) Overlaps(o Span) bool { return s.Start < o.End && o.Start < s.End }

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool { return s.Start <= o.Start && o.End <= s.End }

func (s Span) String() string {
	return fmt.Sprintf("%v -> %v (%v)", s.Start, s.End, s.Len())
}

// Region is a span between two paired markers that may receive songs.
type Region struct {
	Span
	From Marker
	To   Marker
}

// Song is a candidate clip from the music pool.
type Song struct {
	// ID is the project producer id that entries reference.
	ID string
	// Name is a human readable label.
	Name string
	// Path is the media file on disk.
	Path string
	// Length is the playable duration.
	Length time.Duration
}

func (s Song) String() string {
	return fmt.Sprintf("%s (%v)", s.Name, s.Length)
}

// key identifies a song for repetition checks.
func (s Song) key() string {
	if s.ID != "" {
		return s.ID
	}
	return s.Path
}

// Placement puts a song at a specific timeline position.
type Placement struct {
	Song  Song
	Start time.Duration
}

// End returns the time the placed song finishes.
func (p Placement) End() time.Duration { return p.Start + p.Song.Length }

// Span returns the time the placement occupies.
func (p Placement) Span() Span { return Span{Start: p.Start, End: p.End()} }
