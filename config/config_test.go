package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ytauto/music"
)

// isolate points the config search at an empty directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TrackName != "Music" || cfg.Gain != -25 || cfg.MaxGap != 10*time.Second {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	content := `{
		"timezone": "Europe/London",
		"track_name": "Background",
		"min_gap": "1.5s",
		"max_gap": 20,
		"music_dirs": ["/music/calm", "/music/upbeat"],
		"repeat": "region",
		"spread": true
	}`
	if err := os.WriteFile(filepath.Join(dir, "ytauto.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TimeZone != "Europe/London" || cfg.TrackName != "Background" {
		t.Errorf("strings = %q, %q", cfg.TimeZone, cfg.TrackName)
	}
	if cfg.MinGap != 1500*time.Millisecond || cfg.MaxGap != 20*time.Second {
		t.Errorf("gaps = %v, %v; want 1.5s, 20s", cfg.MinGap, cfg.MaxGap)
	}
	if len(cfg.MusicDirs) != 2 || !cfg.Spread {
		t.Errorf("MusicDirs = %v, Spread = %v", cfg.MusicDirs, cfg.Spread)
	}
	// Untouched fields keep their defaults.
	if cfg.MaxRetries != 5 || cfg.InitialBackoff != time.Second {
		t.Errorf("retry fields = %d, %v; want defaults", cfg.MaxRetries, cfg.InitialBackoff)
	}

	opts := cfg.MusicOptions()
	if opts.Repeat != music.UniquePerRegion || opts.Padding != 1500*time.Millisecond || !opts.Spread || opts.Trials != 5 {
		t.Errorf("MusicOptions() = %+v", opts)
	}
}

func TestLoad_HomeConfig(t *testing.T) {
	dir := isolate(t)
	confDir := filepath.Join(dir, ".config", "ytauto")
	if err := os.MkdirAll(confDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(confDir, "ytauto.json"), []byte(`{"gain": -30}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Gain != -30 {
		t.Errorf("Gain = %v, want -30", cfg.Gain)
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	dir := isolate(t)

	if _, err := Load(filepath.Join(dir, "nope.json")); err == nil {
		t.Error("Load(missing explicit path) error = nil")
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`{"min_gap": "soon"}`), 0644)
	if _, err := Load(bad); err == nil {
		t.Error("Load(bad duration) error = nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := isolate(t)
	os.WriteFile(filepath.Join(dir, "ytauto.json"), []byte(`{"track_name": "FromFile", "trials": 2}`), 0644)

	t.Setenv("YTAUTO_TRACK_NAME", "FromEnv")
	t.Setenv("YTAUTO_MIN_GAP", "2s")
	t.Setenv("YTAUTO_GAIN", "-12.5")
	t.Setenv("YTAUTO_SPREAD", "1")
	t.Setenv("YTAUTO_MUSIC_DIRS", strings.Join([]string{"/a", "/b"}, string(os.PathListSeparator)))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TrackName != "FromEnv" || cfg.Trials != 2 {
		t.Errorf("TrackName = %q, Trials = %d", cfg.TrackName, cfg.Trials)
	}
	if cfg.MinGap != 2*time.Second || cfg.Gain != -12.5 || !cfg.Spread {
		t.Errorf("MinGap = %v, Gain = %v, Spread = %v", cfg.MinGap, cfg.Gain, cfg.Spread)
	}
	if len(cfg.MusicDirs) != 2 || cfg.MusicDirs[1] != "/b" {
		t.Errorf("MusicDirs = %v", cfg.MusicDirs)
	}

	t.Setenv("YTAUTO_TRIALS", "many")
	if _, err := Load(""); err == nil {
		t.Error("Load() with YTAUTO_TRIALS=many error = nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad timezone", func(c *Config) { c.TimeZone = "Mars/Olympus" }},
		{"empty track", func(c *Config) { c.TrackName = " " }},
		{"negative min gap", func(c *Config) { c.MinGap = -time.Second }},
		{"max below min", func(c *Config) { c.MinGap = 5 * time.Second; c.MaxGap = time.Second }},
		{"gain too high", func(c *Config) { c.Gain = 30 }},
		{"no trials", func(c *Config) { c.Trials = 0 }},
		{"unknown repeat", func(c *Config) { c.Repeat = "sometimes" }},
		{"zero rps", func(c *Config) { c.RequestsPerSecond = 0 }},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }},
		{"backoff order", func(c *Config) { c.MaxBackoff = time.Millisecond }},
		{"multiplier", func(c *Config) { c.BackoffMultiplier = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() error = nil")
			}
		})
	}
}

func TestDerivedConfigs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequestsPerSecond = 2
	cfg.MaxRetries = 3

	if got := cfg.HTTPConfig().RateLimiter.APIRPS; got != 2 {
		t.Errorf("HTTPConfig().RateLimiter.APIRPS = %v, want 2", got)
	}
	rc := cfg.RetryConfig()
	if rc.MaxRetries != 3 || rc.Multiplier != 2 || rc.JitterFraction == 0 {
		t.Errorf("RetryConfig() = %+v", rc)
	}
}
