// Package youtube talks to the YouTube Data API v3 on behalf of the
// authenticated channel owner: the channel itself, its uploads, its
// playlists and playlist membership.
//
// All calls go through retry.Do with retry.IsGoogleRetryable, so rate limit
// and server errors are retried while quota and permission errors fail fast.
package youtube

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Sentinel errors for YouTube operations.
var (
	// ErrNoChannel indicates the authenticated account owns no channel.
	ErrNoChannel = errors.New("youtube: no channel for the authenticated account")
	// ErrBadDuration indicates a malformed ISO-8601 duration.
	ErrBadDuration = errors.New("youtube: malformed duration")
)

// APIError wraps API failures with the operation that failed.
// Use errors.As() to extract it:
//
//	var apiErr *youtube.APIError
//	if errors.As(err, &apiErr) {
//		fmt.Printf("%s failed: %v\n", apiErr.Op, apiErr.Err)
//	}
type APIError struct {
	// Op is the API call ("channels.list", "playlistItems.insert", ...).
	Op string
	// ID is the playlist or video involved, if any.
	ID string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the API error.
func (e *APIError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("youtube: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("youtube: %s %s: %v", e.Op, e.ID, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *APIError) Unwrap() error { return e.Err }

// Channel is the authenticated user's channel.
type Channel struct {
	ID    string
	Title string
	// Uploads is the id of the channel's uploads playlist.
	Uploads string
}

// Playlist is a playlist owned by the channel.
type Playlist struct {
	ID    string
	Title string
}

// Video is an upload with the fields the automations use.
type Video struct {
	ID          string
	Title       string
	Description string
	// PublishedAt is when the video went public, or was uploaded for
	// videos that are not public yet.
	PublishedAt time.Time
	// PublishAt is the scheduled publish time; zero when not scheduled.
	PublishAt time.Time
	// Privacy is "public", "private" or "unlisted".
	Privacy  string
	Duration time.Duration
}

// Public returns the public videos, in order.
func Public(videos []Video) []Video {
	var out []Video
	for _, v := range videos {
		if v.Privacy == "public" {
			out = append(out, v)
		}
	}
	return out
}

// Scheduled returns the videos whose publish time is after now.
func Scheduled(videos []Video, now time.Time) []Video {
	var out []Video
	for _, v := range videos {
		if !v.PublishAt.IsZero() && v.PublishAt.After(now) {
			out = append(out, v)
		}
	}
	return out
}

var durationRegex = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// ParseDuration parses the ISO-8601 durations the API returns in
// contentDetails.duration, such as "PT1H2M3S" or "P0D".
func ParseDuration(s string) (time.Duration, error) {
	m := durationRegex.FindStringSubmatch(s)
	if m == nil || s == "P" || s[len(s)-1] == 'T' {
		return 0, fmt.Errorf("%w: %q", ErrBadDuration, s)
	}

	var d time.Duration
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute}
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadDuration, s)
		}
		d += time.Duration(n) * unit
	}
	if m[4] != "" {
		secs, err := strconv.ParseFloat(m[4], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadDuration, s)
		}
		d += time.Duration(secs * float64(time.Second))
	}
	return d, nil
}
