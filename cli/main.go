// Command ytauto runs the channel automations: playlist upkeep, the release
// calendars and background music for Shotcut projects.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ytauto/auth"
	"ytauto/calendar"
	"ytauto/config"
	ythttp "ytauto/http"
	"ytauto/youtube"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	a := &app{in: in, out: out}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if err != nil && a.logger != nil {
		a.logger.Debug("run failed", "error", err)
	}
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	return 0
}

// app carries what the subcommands share for one run.
type app struct {
	in  io.Reader
	out io.Writer

	configPath string
	logPath    string
	appendLog  bool

	cfg      *config.Config
	logger   *slog.Logger
	logFile  io.Closer
	session  *auth.Session
	previous *slog.Logger
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ytauto",
		Short: "Automations for a gaming YouTube channel",
		Long: `ytauto keeps a YouTube channel tidy: it files public videos into their
game and series playlists, mirrors released and scheduled videos onto Google
calendars and fills marked regions of a Shotcut project with background music.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ytauto.json or ~/.config/ytauto/ytauto.json)")
	flags.StringVar(&a.logPath, "log-path", "", "file receiving debug logs (default application.log)")
	flags.BoolVar(&a.appendLog, "append-log", false, "append to the log file instead of truncating it")

	cmd.AddCommand(
		newPlaylistCmd(a),
		newCalendarCmd(a),
		newReauthCmd(a),
		newMusicCmd(a),
	)
	return cmd
}

// setup loads the configuration and starts logging before any subcommand.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	override(cmd, "log-path", &cfg.LogPath, a.logPath)
	override(cmd, "append-log", &cfg.AppendLog, a.appendLog)
	a.cfg = cfg

	logger, closer, err := newLogger(a.out, cfg.LogPath, cfg.AppendLog)
	if err != nil {
		return err
	}
	a.logFile = closer
	a.logger = logger.With("run", uuid.NewString())
	// Retries and throttling log through the default logger.
	a.previous = slog.Default()
	slog.SetDefault(a.logger)
	a.logger.Debug("starting", "command", cmd.CommandPath(), "config", a.configPath)
	return nil
}

// override copies a flag value onto the loaded config when the user set it.
func override[T any](cmd *cobra.Command, name string, dst *T, v T) {
	if cmd.Flags().Changed(name) {
		*dst = v
	}
}

// httpClient is the rate-limited client every Google request goes through.
func (a *app) httpClient() *http.Client {
	return ythttp.New(a.cfg.HTTPConfig())
}

func (a *app) auth() *auth.Session {
	if a.session == nil {
		a.session = auth.NewSession(a.httpClient(), a.in, a.out, a.logger)
	}
	return a.session
}

func (a *app) youtube(ctx context.Context) (*youtube.Client, error) {
	hc, err := a.auth().YouTube(ctx, a.cfg.YouTubeEnv)
	if err != nil {
		return nil, err
	}
	yt, err := youtube.NewClient(ctx, hc, a.cfg.RetryConfig())
	if err != nil {
		return nil, err
	}
	yt.Logger = a.logger.With("component", "youtube")
	return yt, nil
}

func (a *app) calendar(ctx context.Context) (*calendar.Client, error) {
	hc, err := a.auth().Calendar(ctx, a.cfg.CalendarEnv, false)
	if err != nil {
		return nil, err
	}
	cal, err := calendar.NewClient(ctx, hc, a.cfg.TimeZone, a.cfg.RetryConfig())
	if err != nil {
		return nil, err
	}
	cal.Logger = a.logger.With("component", "calendar")
	return cal, nil
}

// close saves refreshed tokens and closes the log file.
func (a *app) close() error {
	var errs []error
	if a.session != nil {
		errs = append(errs, a.session.Close())
	}
	if a.previous != nil {
		slog.SetDefault(a.previous)
	}
	if a.logFile != nil {
		errs = append(errs, a.logFile.Close())
	}
	return errors.Join(errs...)
}
