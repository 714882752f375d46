// Package config manages application configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ythttp "ytauto/http"
	"ytauto/internal/retry"
	"ytauto/music"
)

// Config holds all application configuration for the automations.
type Config struct {
	// YouTubeEnv is the dotenv file with the YouTube client and tokens.
	YouTubeEnv string `json:"youtube_env"`
	// CalendarEnv is the Calendar client secrets file; its token is stored
	// next to it with a ".refresh" suffix.
	CalendarEnv string `json:"calendar_env"`
	// TimeZone is used for created calendars and events (IANA name).
	TimeZone string `json:"timezone"`

	// LogPath is the file receiving debug logs.
	LogPath string `json:"log_path"`
	// AppendLog keeps the previous log instead of truncating it.
	AppendLog bool `json:"append_log"`

	// MusicDirs are the folders background songs are taken from.
	MusicDirs []string `json:"music_dirs"`
	// TrackName is the timeline track background music is placed on.
	TrackName string `json:"track_name"`
	// MinGap is the minimum silence between songs and around other clips.
	MinGap time.Duration `json:"min_gap"`
	// MaxGap is the largest silence a region may be left with (0 = no limit).
	MaxGap time.Duration `json:"max_gap"`
	// Gain is the level in dB applied to the music track.
	Gain float64 `json:"gain"`
	// Trials is how many fills are tried per region.
	Trials int `json:"trials"`
	// Repeat is "region", "run" or "allow".
	Repeat string `json:"repeat"`
	// Spread spaces songs evenly through their region.
	Spread bool `json:"spread"`

	// RequestsPerSecond limits calls to the Google APIs.
	RequestsPerSecond float64 `json:"requests_per_second"`
	// MaxRetries is the maximum number of retries for failed operations
	MaxRetries int `json:"max_retries"`
	// InitialBackoff is the initial backoff duration for retries
	InitialBackoff time.Duration `json:"initial_backoff"`
	// MaxBackoff is the maximum backoff duration for retries
	MaxBackoff time.Duration `json:"max_backoff"`
	// BackoffMultiplier is the multiplier for exponential backoff (must be > 1)
	BackoffMultiplier float64 `json:"backoff_multiplier"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		YouTubeEnv:        ".env.youtube",
		CalendarEnv:       ".env.calendar",
		TimeZone:          "UTC",
		LogPath:           "application.log",
		TrackName:         "Music",
		MinGap:            0,
		MaxGap:            10 * time.Second,
		Gain:              -25,
		Trials:            5,
		Repeat:            "run",
		RequestsPerSecond: 5,
		MaxRetries:        5,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Load loads configuration from environment variables, a config file, and
// defaults. Priority: env vars > config file > defaults. An explicit path must
// exist; otherwise ytauto.json in the current directory or
// ~/.config/ytauto/ytauto.json is used when present.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(path); err != nil {
		// Config file is optional unless named
		if path != "" || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	paths := []string{path}
	if path == "" {
		paths = []string{"ytauto.json"}
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, filepath.Join(home, ".config", "ytauto", "ytauto.json"))
		}
	}

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && path == "" {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// UnmarshalJSON reads durations either as Go duration strings ("1.5s") or
// as numbers of seconds.
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	aux := struct {
		*plain
		MinGap         *jsonDuration `json:"min_gap"`
		MaxGap         *jsonDuration `json:"max_gap"`
		InitialBackoff *jsonDuration `json:"initial_backoff"`
		MaxBackoff     *jsonDuration `json:"max_backoff"`
	}{
		plain:          (*plain)(c),
		MinGap:         &jsonDuration{&c.MinGap},
		MaxGap:         &jsonDuration{&c.MaxGap},
		InitialBackoff: &jsonDuration{&c.InitialBackoff},
		MaxBackoff:     &jsonDuration{&c.MaxBackoff},
	}
	return json.Unmarshal(data, &aux)
}

type jsonDuration struct{ d *time.Duration }

func (j *jsonDuration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		d, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*j.d = d
		return nil
	}

	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("duration must be a string like \"5s\" or a number of seconds: %s", data)
	}
	*j.d = time.Duration(secs * float64(time.Second))
	return nil
}

// loadFromEnv overrides config with YTAUTO_* environment variables.
func (c *Config) loadFromEnv() error {
	strs := map[string]*string{
		"YTAUTO_YOUTUBE_ENV":  &c.YouTubeEnv,
		"YTAUTO_CALENDAR_ENV": &c.CalendarEnv,
		"YTAUTO_TIMEZONE":     &c.TimeZone,
		"YTAUTO_LOG_PATH":     &c.LogPath,
		"YTAUTO_TRACK_NAME":   &c.TrackName,
		"YTAUTO_REPEAT":       &c.Repeat,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"YTAUTO_APPEND_LOG": &c.AppendLog,
		"YTAUTO_SPREAD":     &c.Spread,
	}
	for key, dst := range bools {
		if v := os.Getenv(key); v != "" {
			*dst = v == "true" || v == "1"
		}
	}

	durations := map[string]*time.Duration{
		"YTAUTO_MIN_GAP":         &c.MinGap,
		"YTAUTO_MAX_GAP":         &c.MaxGap,
		"YTAUTO_INITIAL_BACKOFF": &c.InitialBackoff,
		"YTAUTO_MAX_BACKOFF":     &c.MaxBackoff,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}

	ints := map[string]*int{
		"YTAUTO_TRIALS":      &c.Trials,
		"YTAUTO_MAX_RETRIES": &c.MaxRetries,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"YTAUTO_GAIN":                &c.Gain,
		"YTAUTO_REQUESTS_PER_SECOND": &c.RequestsPerSecond,
		"YTAUTO_BACKOFF_MULTIPLIER":  &c.BackoffMultiplier,
	}
	for key, dst := range floats {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = f
		}
	}

	if v := os.Getenv("YTAUTO_MUSIC_DIRS"); v != "" {
		c.MusicDirs = filepath.SplitList(v)
	}
	return nil
}

// Validate checks that configuration values are valid and consistent.
// It returns an error if any configuration value is invalid.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.TimeZone, err)
	}
	if strings.TrimSpace(c.TrackName) == "" {
		return fmt.Errorf("track_name must not be empty")
	}
	if c.MinGap < 0 {
		return fmt.Errorf("min_gap must be non-negative")
	}
	if c.MaxGap < 0 {
		return fmt.Errorf("max_gap must be non-negative")
	}
	if c.MaxGap > 0 && c.MaxGap < c.MinGap {
		return fmt.Errorf("max_gap must be >= min_gap")
	}
	if c.Gain > 20 {
		return fmt.Errorf("gain must be at most 20 dB")
	}
	if c.Trials < 1 {
		return fmt.Errorf("trials must be at least 1")
	}
	if _, err := music.ParseRepeatPolicy(c.Repeat); err != nil {
		return err
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("initial_backoff must be positive")
	}
	if c.MaxBackoff <= 0 {
		return fmt.Errorf("max_backoff must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff must be >= initial_backoff")
	}
	if c.BackoffMultiplier <= 1 {
		return fmt.Errorf("backoff_multiplier must be > 1")
	}
	return nil
}

// RetryConfig returns the retry settings for API calls.
func (c *Config) RetryConfig() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxRetries = c.MaxRetries
	cfg.InitialBackoff = c.InitialBackoff
	cfg.MaxBackoff = c.MaxBackoff
	cfg.Multiplier = c.BackoffMultiplier
	return cfg
}

// HTTPConfig returns the transport settings for the Google API clients.
func (c *Config) HTTPConfig() *ythttp.Config {
	cfg := ythttp.DefaultConfig()
	cfg.RateLimiter.APIRPS = c.RequestsPerSecond
	return cfg
}

// MusicOptions returns the placement options. Validate must have passed.
func (c *Config) MusicOptions() music.Options {
	repeat, _ := music.ParseRepeatPolicy(c.Repeat)
	return music.Options{
		Repeat:  repeat,
		Padding: c.MinGap,
		MaxGap:  c.MaxGap,
		Trials:  c.Trials,
		Spread:  c.Spread,
	}
}
