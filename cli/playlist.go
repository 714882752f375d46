package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ytauto/playlist"
)

func newPlaylistCmd(a *app) *cobra.Command {
	var youtubeEnv string

	cmd := &cobra.Command{
		Use:   "playlist-automation",
		Short: "Add public videos to their game and series playlists",
		Long: `Reads every public upload titled "<game>[: <series>] #<n> - <title>" and
adds it to the playlist named "<series>- <game>" (or "<game>" for videos
without a series) when it is not already there.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			override(cmd, "env-youtube", &a.cfg.YouTubeEnv, youtubeEnv)
			ctx := cmd.Context()

			yt, err := a.youtube(ctx)
			if err != nil {
				return err
			}

			auto := &playlist.Automation{YouTube: yt, Logger: a.logger}
			res, err := auto.Run(ctx)
			if err != nil {
				return err
			}

			// Failed inserts are logged by the automation and retried on the
			// next run.
			fmt.Fprintf(cmd.OutOrStdout(), "Missing: %d, added: %d, failed: %d\n", res.Missing, res.Added, res.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&youtubeEnv, "env-youtube", "", "dotenv file with the YouTube client and tokens (default .env.youtube)")
	return cmd
}
