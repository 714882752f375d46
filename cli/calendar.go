package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ytauto/schedule"
)

func newCalendarCmd(a *app) *cobra.Command {
	var youtubeEnv, calendarEnv, timeZone string

	cmd := &cobra.Command{
		Use:   "calendar-automation",
		Short: "Mirror released and scheduled videos onto Google calendars",
		Long: `Keeps two calendars in step with the channel: "` + schedule.PublicCalendar + `"
holds an event per public video at its release time and "` + schedule.ScheduledCalendar + `"
one per video scheduled for the future. Events of deleted videos are removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			override(cmd, "env-youtube", &a.cfg.YouTubeEnv, youtubeEnv)
			override(cmd, "env-calendar", &a.cfg.CalendarEnv, calendarEnv)
			override(cmd, "timezone", &a.cfg.TimeZone, timeZone)
			if _, err := time.LoadLocation(a.cfg.TimeZone); err != nil {
				return fmt.Errorf("timezone %q: %w", a.cfg.TimeZone, err)
			}
			ctx := cmd.Context()

			yt, err := a.youtube(ctx)
			if err != nil {
				return err
			}
			cal, err := a.calendar(ctx)
			if err != nil {
				return err
			}

			auto := &schedule.Automation{YouTube: yt, Calendar: cal, Logger: a.logger}
			return auto.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&youtubeEnv, "env-youtube", "", "dotenv file with the YouTube client and tokens (default .env.youtube)")
	cmd.Flags().StringVar(&calendarEnv, "env-calendar", "", "Calendar client secrets file (default .env.calendar)")
	cmd.Flags().StringVar(&timeZone, "timezone", "", "IANA time zone for created calendars and events (default UTC)")
	return cmd
}
