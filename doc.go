// Package ytauto automates the upkeep of a gaming YouTube channel.
//
// Overview
//
// The module is a set of packages driven by the ytauto command:
//
//   - playlist: file public videos into "<series>- <game>" playlists
//   - schedule: mirror released and scheduled videos onto two calendars
//   - music: pair timeline markers into regions and plan song placements
//   - shotcut: read markers and music clips from a Shotcut project and
//     write the planned placements back
//   - youtube, calendar: Google API clients with retries
//   - auth: OAuth consent, token refresh and token storage
//   - config: configuration management
//
// Quick Start
//
// Add missing videos to their playlists:
//
//	ytauto playlist-automation --env-youtube .env.youtube
//
// Fill the marked regions of the latest project with music:
//
//	ytauto background-music --project-path ~/Videos/projects --music ~/Music/calm --dry-run
//
// Configuration
//
// ytauto loads settings from multiple sources:
//
//   1. Command line flags (highest priority)
//   2. Environment variables
//   3. Config file (ytauto.json or ~/.config/ytauto/ytauto.json)
//   4. Default values (lowest priority)
//
// Environment variables:
//
//   - YTAUTO_YOUTUBE_ENV: dotenv file with the YouTube client and tokens
//   - YTAUTO_CALENDAR_ENV: Calendar client secrets file
//   - YTAUTO_TIMEZONE: IANA time zone for calendars and events
//   - YTAUTO_LOG_PATH, YTAUTO_APPEND_LOG: debug log file
//   - YTAUTO_MUSIC_DIRS: music folders, separated like PATH
//   - YTAUTO_TRACK_NAME, YTAUTO_GAIN: target track and its level
//   - YTAUTO_MIN_GAP, YTAUTO_MAX_GAP: silence around and between songs
//   - YTAUTO_TRIALS, YTAUTO_REPEAT, YTAUTO_SPREAD: placement tuning
//   - YTAUTO_REQUESTS_PER_SECOND: Google API rate limit
//   - YTAUTO_MAX_RETRIES: Maximum retry attempts
//   - YTAUTO_INITIAL_BACKOFF: Initial retry backoff duration
//   - YTAUTO_MAX_BACKOFF: Maximum retry backoff duration
//
// Error Handling
//
// All operations return errors that implement standard Go error handling:
//
//	if errors.Is(err, ytauto.ErrProjectNotFound) {
//		fmt.Println("No project there")
//	}
//
//	var apiErr *ytauto.YouTubeError
//	if errors.As(err, &apiErr) {
//		fmt.Printf("%s %s failed: %v\n", apiErr.Op, apiErr.ID, apiErr.Err)
//	}
//
// Advanced Usage
//
// The planner works on plain values and can be used without a project file:
//
//	planner := &music.Planner{Source: music.NewSource(1), Options: music.Options{MaxGap: 10 * time.Second}}
//	plan := planner.Plan(music.Input{Markers: markers, Timeline: timeline, Pool: songs})
//	if err := plan.Err(); err != nil {
//		log.Fatal(err)
//	}
//
package ytauto
