package shotcut

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"ytauto/music"
)

// ErrOverlap indicates placements would overlap clips already on a track.
var ErrOverlap = errors.New("shotcut: clips overlap")

// Track is a playlist element shown as a timeline track.
type Track struct {
	p  *Project
	el *etree.Element
}

// ID returns the playlist id that the main tractor references.
func (t *Track) ID() string { return t.el.SelectAttrValue("id", "") }

// Name returns the track's display name.
func (t *Track) Name() string { return properties(t.el)["shotcut:name"] }

// Track returns the track named name, or nil.
func (p *Project) Track(name string) *Track {
	for _, el := range p.root.SelectElements("playlist") {
		if properties(el)["shotcut:name"] == name {
			return &Track{p: p, el: el}
		}
	}
	return nil
}

// EnsureTrack returns the track named name, creating an audio track when the
// project has none. The bool reports whether a track was created.
func (p *Project) EnsureTrack(name string) (*Track, bool) {
	if t := p.Track(name); t != nil {
		return t, false
	}

	next := 0
	for _, el := range p.root.SelectElements("playlist") {
		if n := numericID(el); n >= next {
			next = n + 1
		}
	}
	id := fmt.Sprintf("playlist%d", next)

	el := p.root.CreateElement("playlist")
	el.CreateAttr("id", id)
	setProperty(el, "shotcut:audio", "1")
	setProperty(el, "shotcut:name", name)
	setProperty(el, "shotcut:uuid", "{"+uuid.NewString()+"}")
	p.root.RemoveChild(el)
	p.root.InsertChild(p.main, el)

	p.addTrackRef(id)
	return &Track{p: p, el: el}, true
}

// addTrackRef references playlist id from the main tractor after its last
// track and mixes its audio into the first track.
func (p *Project) addTrackRef(id string) {
	tracks := p.main.SelectElements("track")

	ref := p.main.CreateElement("track")
	ref.CreateAttr("producer", id)
	ref.CreateAttr("hide", "video")

	if len(tracks) > 0 {
		children := p.main.ChildElements()
		for i, c := range children {
			if c == tracks[len(tracks)-1] && i+1 < len(children) && children[i+1] != ref {
				p.main.RemoveChild(ref)
				p.main.InsertChild(children[i+1], ref)
				break
			}
		}
	}

	next := 0
	for _, el := range p.root.FindElements(".//transition") {
		if n := numericID(el); n >= next {
			next = n + 1
		}
	}
	mix := p.main.CreateElement("transition")
	mix.CreateAttr("id", fmt.Sprintf("transition%d", next))
	setProperty(mix, "a_track", "0")
	setProperty(mix, "b_track", strconv.Itoa(len(tracks)))
	setProperty(mix, "mlt_service", "mix")
	setProperty(mix, "always_active", "1")
	setProperty(mix, "sum", "1")
}

// item is a blank or entry walked in playlist order.
type item struct {
	start  time.Duration
	length time.Duration
	el     *etree.Element
}

// entries walks the playlist and returns its entries with their start times.
func (t *Track) entries() ([]item, error) {
	var out []item
	var now time.Duration
	for _, el := range t.el.ChildElements() {
		switch el.Tag {
		case "blank":
			length, err := ParseClock(el.SelectAttrValue("length", "00:00:00.000"))
			if err != nil {
				return nil, &ProjectError{Op: "read track", Path: t.p.Path, Err: err}
			}
			now += length
		case "entry":
			length, ok := clipLength(el)
			if !ok {
				return nil, &ProjectError{Op: "read track", Path: t.p.Path,
					Err: fmt.Errorf("%w: entry for %s", ErrBadClock, el.SelectAttrValue("producer", "?"))}
			}
			out = append(out, item{start: now, length: length, el: el})
			now += length
		}
	}
	return out, nil
}

// Occupied returns the spans covered by the track's existing entries.
func (t *Track) Occupied() ([]music.Span, error) {
	items, err := t.entries()
	if err != nil {
		return nil, err
	}
	spans := make([]music.Span, len(items))
	for i, it := range items {
		spans[i] = music.Span{Start: it.start, End: it.start + it.length}
	}
	return spans, nil
}

// Used returns the songs from pool that already appear on the track.
func (t *Track) Used(pool []music.Song) []music.Song {
	byID := make(map[string]music.Song, len(pool))
	for _, s := range pool {
		byID[s.ID] = s
	}

	var used []music.Song
	for _, el := range t.el.SelectElements("entry") {
		if s, ok := byID[el.SelectAttrValue("producer", "")]; ok {
			used = append(used, s)
		}
	}
	return used
}

// SetGain replaces the track's gain filter with one applying db decibels up
// to out.
func (t *Track) SetGain(db float64, out time.Duration) {
	next := 0
	for _, f := range t.p.root.FindElements(".//filter") {
		if n := numericID(f); n >= next {
			next = n + 1
		}
	}

	for _, f := range t.el.SelectElements("filter") {
		if properties(f)["mlt_service"] == "volume" {
			t.el.RemoveChild(f)
		}
	}

	f := t.el.CreateElement("filter")
	f.CreateAttr("id", fmt.Sprintf("filter%d", next))
	f.CreateAttr("out", FormatClock(out))
	setProperty(f, "window", "75")
	setProperty(f, "max_gain", "20dB")
	setProperty(f, "level", strconv.FormatFloat(db, 'f', -1, 64))
	setProperty(f, "channel_mask", "-1")
	setProperty(f, "mlt_service", "volume")
	setProperty(f, "shotcut:filter", "audioGain")
}

// Write merges placements with the track's existing entries and rewrites
// the playlist as alternating blanks and entries in time order. Placement
// starts and lengths are rounded to the millisecond, the resolution of the
// project's clock values. Filters are moved after the entries. It fails with
// ErrOverlap when two clips would overlap; the track is left unchanged in
// that case.
func (t *Track) Write(placements []music.Placement) error {
	items, err := t.entries()
	if err != nil {
		return err
	}
	for _, pl := range placements {
		items = append(items, item{
			start:  pl.Start.Round(time.Millisecond),
			length: pl.Song.Length.Round(time.Millisecond),
			el:     newEntry(pl),
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].start < items[j].start })

	var now time.Duration
	for _, it := range items {
		if it.start < now {
			return &ProjectError{Op: "write track", Path: t.p.Path,
				Err: fmt.Errorf("%w at %s", ErrOverlap, FormatClock(it.start))}
		}
		now = it.start + it.length
	}

	for _, el := range t.el.ChildElements() {
		if el.Tag == "blank" || el.Tag == "entry" {
			t.el.RemoveChild(el)
		}
	}

	// now is the position reached by what has been written so far.
	now = 0
	for _, it := range items {
		if gap := it.start - now; gap > 0 {
			blank := t.el.CreateElement("blank")
			blank.CreateAttr("length", FormatClock(gap))
			now += gap.Round(time.Millisecond)
		}
		t.el.AddChild(it.el)
		now += it.length
	}

	for _, f := range t.el.SelectElements("filter") {
		t.el.RemoveChild(f)
		t.el.AddChild(f)
	}
	return nil
}

// newEntry builds an unattached entry element for a placement.
func newEntry(pl music.Placement) *etree.Element {
	doc := etree.NewDocument()
	el := doc.CreateElement("entry")
	el.CreateAttr("producer", pl.Song.ID)
	el.CreateAttr("in", FormatClock(0))
	el.CreateAttr("out", FormatClock(pl.Song.Length))
	doc.RemoveChild(el)
	return el
}

// clipLength returns out - in for a producer, chain or entry element,
// falling back to the length property.
func clipLength(el *etree.Element) (time.Duration, bool) {
	if out := el.SelectAttrValue("out", ""); out != "" {
		end, err := ParseClock(out)
		if err != nil {
			return 0, false
		}
		start, err := ParseClock(el.SelectAttrValue("in", "00:00:00.000"))
		if err != nil || end <= start {
			return 0, false
		}
		return end - start, true
	}

	length, err := ParseClock(properties(el)["length"])
	if err != nil || length <= 0 {
		return 0, false
	}
	return length, true
}
