package shotcut

import (
	"errors"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"00:00:00.000", 0, false},
		{"00:01:02.345", time.Minute + 2*time.Second + 345*time.Millisecond, false},
		{"12:00:00.000", 12 * time.Hour, false},
		{"1:02:00:00.000", 26 * time.Hour, false},
		{"", 0, true},
		{"00:61:00.000", 0, true},
		{"1500", 0, true},
		{"00:00:01,000", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrBadClock) {
					t.Errorf("ParseClock(%q) error = %v, want ErrBadClock", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClock(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseClock(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00.000"},
		{5 * time.Millisecond, "00:00:00.005"},
		{90*time.Second + 1500*time.Microsecond, "00:01:30.002"},
		{26 * time.Hour, "26:00:00.000"},
		{-time.Second, "00:00:00.000"},
	}

	for _, tt := range tests {
		if got := FormatClock(tt.in); got != tt.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClockRoundTrip(t *testing.T) {
	for _, d := range []time.Duration{0, 999 * time.Millisecond, 3*time.Hour + 7*time.Minute + 11*time.Second + 13*time.Millisecond} {
		got, err := ParseClock(FormatClock(d))
		if err != nil || got != d {
			t.Errorf("ParseClock(FormatClock(%v)) = %v, %v", d, got, err)
		}
	}
}
