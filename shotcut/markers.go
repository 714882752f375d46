package shotcut

import (
	"strconv"

	"github.com/beevik/etree"

	"ytauto/music"
)

const markersPath = "properties[@name='shotcut:markers']"

// Markers returns the timeline markers in project order. Index is the
// marker's position in the project's list. Markers without a readable start
// are logged and skipped.
func (p *Project) Markers() []music.Marker {
	var out []music.Marker
	for i, node := range p.markerNodes() {
		at, err := ParseClock(properties(node)["start"])
		if err != nil {
			p.logger().Warn("skipping marker", "index", i, "path", p.Path, "err", err)
			continue
		}
		out = append(out, music.Marker{At: at, Index: i})
	}
	return out
}

func (p *Project) markerNodes() []*etree.Element {
	container := p.main.FindElement(markersPath)
	if container == nil {
		return nil
	}
	return container.SelectElements("properties")
}

// RemoveMarkers rewrites the marker list so that only the markers in keep
// remain, renumbered from zero. The list itself is dropped when empty.
// Virtual markers in keep are ignored.
func (p *Project) RemoveMarkers(keep []music.Marker) {
	container := p.main.FindElement(markersPath)
	if container == nil {
		return
	}

	retain := make(map[int]bool, len(keep))
	for _, m := range keep {
		if !m.Virtual {
			retain[m.Index] = true
		}
	}

	next := 0
	for i, node := range container.SelectElements("properties") {
		if !retain[i] {
			container.RemoveChild(node)
			continue
		}
		node.CreateAttr("name", strconv.Itoa(next))
		next++
	}

	if next == 0 {
		p.main.RemoveChild(container)
	}
}
