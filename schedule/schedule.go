// Package schedule mirrors the channel's publish dates into two Google
// calendars: one for public videos and one for videos scheduled to go
// public. Each event carries "ID: <video id>" in its description, which is
// how events are matched back to videos.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"ytauto/calendar"
	"ytauto/youtube"
)

// Calendar names.
const (
	PublicCalendar    = "Videos (Public)"
	ScheduledCalendar = "Videos (Scheduled)"
)

var videoIDRegex = regexp.MustCompile(`ID: (\S+)`)

// Calendars is the part of the calendar client the automation uses.
type Calendars interface {
	Ensure(ctx context.Context, summary, description string) (calendar.Calendar, error)
	Events(ctx context.Context, calendarID string) ([]calendar.Event, error)
	Insert(ctx context.Context, calendarID string, ev calendar.Event) (calendar.Event, error)
	Update(ctx context.Context, calendarID string, ev calendar.Event) (calendar.Event, error)
	Delete(ctx context.Context, calendarID, eventID string) error
}

// Channel is the part of the YouTube client the automation uses.
type Channel interface {
	Channel(ctx context.Context) (youtube.Channel, error)
	Videos(ctx context.Context) ([]youtube.Video, error)
}

// EventFor builds the calendar event for a video. Public videos start at
// their publish time, others at their scheduled time. The event lasts as
// long as the video.
func EventFor(v youtube.Video) calendar.Event {
	start := v.PublishAt
	if v.Privacy == "public" || start.IsZero() {
		start = v.PublishedAt
	}
	return calendar.Event{
		Summary:     v.Title,
		Description: fmt.Sprintf("ID: %s\nDescription: %s", v.ID, v.Description),
		Start:       start,
		End:         start.Add(v.Duration),
	}
}

// VideoID extracts the video id from an event description.
func VideoID(ev calendar.Event) (string, bool) {
	m := videoIDRegex.FindStringSubmatch(ev.Description)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// byVideo indexes events by the video id in their description. The first
// event wins when several name the same video.
func byVideo(events []calendar.Event) map[string]calendar.Event {
	out := make(map[string]calendar.Event, len(events))
	for _, ev := range events {
		if id, ok := VideoID(ev); ok {
			if _, dup := out[id]; !dup {
				out[id] = ev
			}
		}
	}
	return out
}

// SyncResult counts what Sync did.
type SyncResult struct {
	Created   int
	Updated   int
	Unchanged int
}

// Sync creates an event for each video, or updates the event that already
// names the video. Events whose details match are left alone.
func Sync(ctx context.Context, cals Calendars, cal calendar.Calendar, videos []youtube.Video, log *slog.Logger) (SyncResult, error) {
	var res SyncResult
	events, err := cals.Events(ctx, cal.ID)
	if err != nil {
		return res, err
	}
	existing := byVideo(events)

	for _, v := range videos {
		want := EventFor(v)
		found, ok := existing[v.ID]
		switch {
		case ok && found.Same(want):
			res.Unchanged++

		case ok:
			want.ID = found.ID
			if _, err := cals.Update(ctx, cal.ID, want); err != nil {
				return res, err
			}
			res.Updated++
			log.Debug("updated event", "calendar", cal.Summary, "video", v.Title)

		default:
			created, err := cals.Insert(ctx, cal.ID, want)
			if err != nil {
				return res, err
			}
			existing[v.ID] = created
			res.Created++
			log.Debug("created event", "calendar", cal.Summary, "video", v.Title)
		}
	}
	return res, nil
}

// Remove deletes the events for videos from a calendar and returns how many
// were deleted.
func Remove(ctx context.Context, cals Calendars, cal calendar.Calendar, videos []youtube.Video, log *slog.Logger) (int, error) {
	events, err := cals.Events(ctx, cal.ID)
	if err != nil {
		return 0, err
	}
	existing := byVideo(events)

	deleted := 0
	for _, v := range videos {
		ev, ok := existing[v.ID]
		if !ok {
			continue
		}
		if err := cals.Delete(ctx, cal.ID, ev.ID); err != nil {
			return deleted, err
		}
		delete(existing, v.ID)
		deleted++
		log.Debug("removed event", "calendar", cal.Summary, "video", v.Title)
	}
	return deleted, nil
}

// Purge deletes the events whose video is not among videos, which should be
// every upload the channel still has.
func Purge(ctx context.Context, cals Calendars, cal calendar.Calendar, videos []youtube.Video, log *slog.Logger) (int, error) {
	events, err := cals.Events(ctx, cal.ID)
	if err != nil {
		return 0, err
	}
	exists := make(map[string]bool, len(videos))
	for _, v := range videos {
		exists[v.ID] = true
	}

	deleted := 0
	for _, ev := range events {
		id, ok := VideoID(ev)
		if !ok || exists[id] {
			continue
		}
		if err := cals.Delete(ctx, cal.ID, ev.ID); err != nil {
			return deleted, err
		}
		deleted++
		log.Debug("purged event", "calendar", cal.Summary, "video", id)
	}
	return deleted, nil
}

// Automation keeps the two video calendars in step with the channel.
type Automation struct {
	YouTube  Channel
	Calendar Calendars
	// Now returns the current time; time.Now when nil.
	Now    func() time.Time
	Logger *slog.Logger
}

// Run syncs public and scheduled videos into their calendars, removes
// scheduled videos from the public calendar and purges events of deleted
// videos from both.
func (a *Automation) Run(ctx context.Context) error {
	log := a.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "schedule")
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}

	ch, err := a.YouTube.Channel(ctx)
	if err != nil {
		return err
	}

	public, err := a.Calendar.Ensure(ctx, PublicCalendar, "Publicly released videos for "+ch.Title)
	if err != nil {
		return err
	}
	scheduled, err := a.Calendar.Ensure(ctx, ScheduledCalendar, "Unreleased videos for "+ch.Title)
	if err != nil {
		return err
	}
	log.Debug("using calendars", "public", public.ID, "scheduled", scheduled.ID)

	videos, err := a.YouTube.Videos(ctx)
	if err != nil {
		return err
	}
	publicVideos := youtube.Public(videos)
	scheduledVideos := youtube.Scheduled(videos, now())
	log.Debug("found videos", "public", len(publicVideos), "scheduled", len(scheduledVideos))

	for _, job := range []struct {
		cal    calendar.Calendar
		videos []youtube.Video
	}{
		{public, publicVideos},
		{scheduled, scheduledVideos},
	} {
		if len(job.videos) == 0 {
			continue
		}
		res, err := Sync(ctx, a.Calendar, job.cal, job.videos, log)
		if err != nil {
			return fmt.Errorf("sync %s: %w", job.cal.Summary, err)
		}
		log.Info("synced calendar", "calendar", job.cal.Summary,
			"created", res.Created, "updated", res.Updated, "unchanged", res.Unchanged)
	}

	n, err := Remove(ctx, a.Calendar, public, scheduledVideos, log)
	if err != nil {
		return fmt.Errorf("remove from %s: %w", public.Summary, err)
	}
	log.Info("removed scheduled videos", "calendar", public.Summary, "count", n)

	for _, cal := range []calendar.Calendar{scheduled, public} {
		n, err := Purge(ctx, a.Calendar, cal, videos, log)
		if err != nil {
			return fmt.Errorf("purge %s: %w", cal.Summary, err)
		}
		log.Info("purged deleted videos", "calendar", cal.Summary, "count", n)
	}

	log.Info("all videos synced to calendars")
	return nil
}
