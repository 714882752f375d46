package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ytauto/music"
	"ytauto/shotcut"
)

type musicOptions struct {
	project     string
	projectPath string
	musicDirs   []string
	minGap      float64
	maxGap      float64
	gain        float64
	trackName   string
	trials      int
	repeat      string
	spread      bool
	seed        uint64
	dryRun      bool
}

func newMusicCmd(a *app) *cobra.Command {
	var o musicOptions

	cmd := &cobra.Command{
		Use:   "background-music",
		Short: "Fill marked regions of a Shotcut project with background music",
		Long: `Pairs the project's markers into regions, leaves room around clips already
on the music track and fills each region with songs from the project bin
whose files live in one of the music folders. Consumed markers are removed
and the project is saved in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			override(cmd, "music", &cfg.MusicDirs, o.musicDirs)
			override(cmd, "min-gap", &cfg.MinGap, seconds(o.minGap))
			override(cmd, "max-gap", &cfg.MaxGap, seconds(o.maxGap))
			override(cmd, "gain", &cfg.Gain, o.gain)
			override(cmd, "track-name", &cfg.TrackName, o.trackName)
			override(cmd, "trials", &cfg.Trials, o.trials)
			override(cmd, "repeat", &cfg.Repeat, o.repeat)
			override(cmd, "spread", &cfg.Spread, o.spread)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if len(cfg.MusicDirs) == 0 {
				return errors.New("no music folders given, pass --music or set music_dirs")
			}
			if !cmd.Flags().Changed("seed") {
				o.seed = uint64(time.Now().UnixNano())
			}
			return a.backgroundMusic(cmd, o)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.project, "project", "", "Shotcut project file, or a folder holding one")
	flags.StringVar(&o.projectPath, "project-path", "", "folder of projects; the most recently modified one is used")
	flags.StringArrayVar(&o.musicDirs, "music", nil, "folder songs are taken from (repeatable)")
	flags.Float64Var(&o.minGap, "min-gap", 0, "seconds of silence kept between songs and around clips")
	flags.Float64Var(&o.maxGap, "max-gap", 10, "largest silence in seconds a region may be left with (0 = no limit)")
	flags.Float64Var(&o.gain, "gain", -25, "music track level in dB")
	flags.StringVar(&o.trackName, "track-name", "Music", "timeline track the music is placed on")
	flags.IntVar(&o.trials, "trials", 5, "fills tried per region; the tightest is kept")
	flags.StringVar(&o.repeat, "repeat", "run", "song repetition: region, run or allow")
	flags.BoolVar(&o.spread, "spread", false, "space songs evenly through their region")
	flags.Uint64Var(&o.seed, "seed", 0, "random seed for reproducible placements")
	flags.BoolVar(&o.dryRun, "dry-run", false, "print the plan without changing the project")
	cmd.MarkFlagsMutuallyExclusive("project", "project-path")
	cmd.MarkFlagsOneRequired("project", "project-path")
	return cmd
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (a *app) backgroundMusic(cmd *cobra.Command, o musicOptions) error {
	cfg := a.cfg
	log := a.logger.With("component", "music")

	var path string
	var err error
	if o.project != "" {
		path, err = shotcut.Find(o.project)
	} else {
		path, err = shotcut.Latest(o.projectPath)
	}
	if err != nil {
		return err
	}
	log.Info("opening project", "path", path)

	project, err := shotcut.Open(path)
	if err != nil {
		return err
	}
	defer project.Close()
	project.Logger = log

	songs := project.Songs(cfg.MusicDirs)
	if len(songs) == 0 {
		return fmt.Errorf("%w: no clips from %v in %s", music.ErrEmptyPool, cfg.MusicDirs, path)
	}
	log.Debug("found songs", "count", len(songs))

	markers := project.Markers()
	timeline, err := project.Timeline()
	if err != nil {
		return err
	}

	track, created := project.EnsureTrack(cfg.TrackName)
	if created {
		log.Info("created track", "name", cfg.TrackName)
	}
	existing, err := track.Occupied()
	if err != nil {
		return err
	}

	planner := &music.Planner{
		Source:  music.NewSource(o.seed),
		Options: cfg.MusicOptions(),
		Logger:  log,
	}
	log.Info("planning", "markers", len(markers), "seed", o.seed)
	plan := planner.Plan(music.Input{
		Markers:  markers,
		Timeline: timeline,
		Existing: existing,
		Pool:     songs,
		Used:     track.Used(songs),
	})
	for _, p := range plan.Problems {
		log.Warn("plan problem", "error", p)
	}

	rep := report{
		Project:  path,
		Track:    cfg.TrackName,
		Created:  created,
		Seed:     o.seed,
		Plan:     plan,
		DryRun:   o.dryRun,
		Timeline: timeline,
	}
	if err := plan.Err(); err != nil {
		rep.render(cmd.OutOrStdout())
		return err
	}
	if o.dryRun {
		rep.render(cmd.OutOrStdout())
		return nil
	}

	if err := track.Write(plan.Placements); err != nil {
		return err
	}
	track.SetGain(cfg.Gain, timeline.End)
	project.RemoveMarkers(music.Remaining(markers, plan.Consumed))
	if err := project.Save(); err != nil {
		return err
	}

	log.Info("placed songs", "count", len(plan.Placements), "regions", len(plan.Regions))
	rep.render(cmd.OutOrStdout())
	return nil
}
