package http

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterRPS(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		APIRPS:      5,
		TokenRPS:    1,
		DefaultRPS:  0,
		CustomRates: map[string]float64{"calendar.example": 2},
	})

	tests := []struct {
		host string
		want float64
	}{
		{"youtube.googleapis.com", 5},
		{"www.googleapis.com", 5},
		{"oauth2.googleapis.com", 1},
		{"calendar.example", 2},
		{"127.0.0.1", 0},
	}

	for _, tt := range tests {
		if got := rl.rps(tt.host); got != tt.want {
			t.Errorf("rps(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}

	if rl.limiterFor("127.0.0.1") != nil {
		t.Error("unlimited host got a limiter")
	}
}

func TestRateLimiterWait(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{DefaultRPS: 10}) // 100ms per request
	ctx := context.Background()

	if err := rl.Wait(ctx, "example.com"); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	start := time.Now()
	if err := rl.Wait(ctx, "example.com"); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Logf("Second request took %v (expected ~100ms)", elapsed)
	}
}

func TestRateLimiterContextCanceled(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{DefaultRPS: 0.5})
	ctx, cancel := context.WithCancel(context.Background())

	if err := rl.Wait(ctx, "example.com"); err != nil {
		t.Fatalf("First Wait failed: %v", err)
	}

	cancel()
	if err := rl.Wait(ctx, "example.com"); err == nil {
		t.Fatal("Expected context canceled error")
	}
}

func TestRateLimiterNil(t *testing.T) {
	var rl *RateLimiter
	if err := rl.Wait(context.Background(), "example.com"); err != nil {
		t.Errorf("nil limiter Wait() = %v, want nil", err)
	}
	if err := rl.WaitForBackoff(context.Background(), "example.com"); err != nil {
		t.Errorf("nil limiter WaitForBackoff() = %v, want nil", err)
	}
	rl.RecordSuccess("example.com")
}

func TestRecordRateLimitError(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{APIRPS: 4, EnableDynamicBackoff: true})
	host := "youtube.googleapis.com"
	rl.limiterFor(host)

	wantBackoff := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	wantRPS := []float64{3, 2, 1}
	for i := range wantBackoff {
		got := rl.RecordRateLimitError(host, 0)
		if got != wantBackoff[i] {
			t.Errorf("error #%d backoff = %v, want %v", i+1, got, wantBackoff[i])
		}
		state := rl.GetBackoffState(host)
		if state.ReducedRPS != wantRPS[i] {
			t.Errorf("error #%d ReducedRPS = %v, want %v", i+1, state.ReducedRPS, wantRPS[i])
		}
		if lim := float64(rl.limiters[host].Limit()); lim != wantRPS[i] {
			t.Errorf("error #%d limiter rate = %v, want %v", i+1, lim, wantRPS[i])
		}
	}

	for i := 0; i < 10; i++ {
		rl.RecordRateLimitError(host, 0)
	}
	if got := rl.GetBackoffState(host).CurrentBackoff; got != MaxBackoff {
		t.Errorf("backoff after many errors = %v, want %v", got, MaxBackoff)
	}
}

func TestRecordRateLimitError_RetryAfterWins(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{EnableDynamicBackoff: true})

	if got := rl.RecordRateLimitError("example.com", 10*time.Second); got != 10*time.Second {
		t.Errorf("backoff = %v, want Retry-After of 10s", got)
	}
}

func TestRecordRateLimitError_Disabled(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{})

	if got := rl.RecordRateLimitError("example.com", 0); got != InitialBackoff {
		t.Errorf("backoff = %v, want %v", got, InitialBackoff)
	}
	if rl.GetBackoffState("example.com") != nil {
		t.Error("backoff state recorded with dynamic backoff disabled")
	}
}

func TestRecordSuccess_Recovers(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{APIRPS: 4, EnableDynamicBackoff: true})
	host := "www.googleapis.com"
	rl.limiterFor(host)

	rl.RecordRateLimitError(host, 0)
	rl.RecordRateLimitError(host, 0)
	rl.RecordRateLimitError(host, 0)

	for i := 0; i < 3; i++ {
		rl.RecordSuccess(host)
	}

	state := rl.GetBackoffState(host)
	if state.ConsecutiveErrors != 0 {
		t.Errorf("ConsecutiveErrors = %d, want 0", state.ConsecutiveErrors)
	}
	if state.ReducedRPS != 2 {
		t.Errorf("ReducedRPS = %v, want half of the original", state.ReducedRPS)
	}
}

func TestWaitForBackoff(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{EnableDynamicBackoff: true})
	rl.RecordRateLimitError("example.com", 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := rl.WaitForBackoff(ctx, "example.com"); err == nil {
		t.Error("WaitForBackoff() returned before the 1s backoff elapsed")
	}
	if err := rl.WaitForBackoff(context.Background(), "other.example"); err != nil {
		t.Errorf("WaitForBackoff() for a clean host = %v, want nil", err)
	}
}
