package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReauthCmd(a *app) *cobra.Command {
	var youtubeEnv, calendarEnv string

	cmd := &cobra.Command{
		Use:   "reauth-clients",
		Short: "Refresh the YouTube token and re-authorise the Calendar client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			override(cmd, "env-youtube", &a.cfg.YouTubeEnv, youtubeEnv)
			override(cmd, "env-calendar", &a.cfg.CalendarEnv, calendarEnv)
			ctx := cmd.Context()

			if _, err := a.auth().YouTube(ctx, a.cfg.YouTubeEnv); err != nil {
				return err
			}
			if err := a.auth().Reauth(ctx, a.cfg.CalendarEnv); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Clients authorised.")
			return nil
		},
	}

	cmd.Flags().StringVar(&youtubeEnv, "env-youtube", "", "dotenv file with the YouTube client and tokens (default .env.youtube)")
	cmd.Flags().StringVar(&calendarEnv, "env-calendar", "", "Calendar client secrets file (default .env.calendar)")
	return cmd
}
