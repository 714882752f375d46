package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ytauto/music"
	"ytauto/shotcut"
)

// report describes a background music run for the terminal.
type report struct {
	Project  string
	Track    string
	Created  bool
	Seed     uint64
	DryRun   bool
	Timeline music.Span
	Plan     *music.Plan
}

type styles struct {
	title   lipgloss.Style
	region  lipgloss.Style
	song    lipgloss.Style
	dim     lipgloss.Style
	warning lipgloss.Style
	success lipgloss.Style
	box     lipgloss.Style
}

// newStyles binds the palette to w so colour is only emitted to terminals.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
		region:  r.NewStyle().Foreground(lipgloss.Color("#4ECDC4")),
		song:    r.NewStyle().Foreground(lipgloss.Color("#F8B500")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("#6C757D")),
		warning: r.NewStyle().Foreground(lipgloss.Color("#FFE66D")),
		success: r.NewStyle().Foreground(lipgloss.Color("#95E1A3")),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(0, 1),
	}
}

func (rep report) render(w io.Writer) {
	s := newStyles(w)
	var b strings.Builder

	title := "Background music"
	if rep.DryRun {
		title += " (dry run)"
	}
	b.WriteString(s.title.Render(title) + "\n")
	fmt.Fprintf(&b, "%s %s\n", s.dim.Render("project:"), rep.Project)
	track := rep.Track
	if rep.Created {
		track += " (new)"
	}
	fmt.Fprintf(&b, "%s %s\n", s.dim.Render("track:  "), track)
	fmt.Fprintf(&b, "%s %s - %s\n", s.dim.Render("length: "), shotcut.FormatClock(rep.Timeline.Start), shotcut.FormatClock(rep.Timeline.End))
	fmt.Fprintf(&b, "%s %d\n", s.dim.Render("seed:   "), rep.Seed)

	for _, fill := range rep.Plan.Regions {
		r := fill.Region
		b.WriteString("\n" + s.region.Render(fmt.Sprintf("%s - %s", shotcut.FormatClock(r.Start), shotcut.FormatClock(r.End))))
		b.WriteString(s.dim.Render(fmt.Sprintf("  %v", r.Len())) + "\n")
		for _, p := range fill.Placements {
			fmt.Fprintf(&b, "  %s  %s\n", shotcut.FormatClock(p.Start), s.song.Render(p.Song.String()))
		}
		if len(fill.Placements) == 0 {
			b.WriteString("  " + s.warning.Render("nothing fits") + "\n")
		} else {
			b.WriteString("  " + s.dim.Render(fmt.Sprintf("silence left: %v", fill.Leftover)) + "\n")
		}
	}

	if len(rep.Plan.Problems) > 0 {
		b.WriteString("\n")
		for _, err := range rep.Plan.Problems {
			b.WriteString(s.warning.Render("! "+err.Error()) + "\n")
		}
	}

	summary := fmt.Sprintf("%d songs in %d regions", len(rep.Plan.Placements), len(rep.Plan.Regions))
	switch {
	case rep.Plan.Err() != nil:
		summary = s.warning.Render(summary)
	case rep.DryRun:
		summary = s.success.Render(summary + ", nothing written")
	default:
		summary = s.success.Render(summary + ", project saved")
	}
	b.WriteString("\n" + summary)

	fmt.Fprintln(w, s.box.Render(b.String()))
}
