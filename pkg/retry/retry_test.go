package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result := Do(context.Background(), fastConfig(3), func(ctx context.Context) error {
		calls++
		return nil
	})

	if result.Err != nil {
		t.Errorf("Err = %v, want nil", result.Err)
	}
	if result.Attempts != 1 || calls != 1 {
		t.Errorf("Attempts = %d, calls = %d, want 1/1", result.Attempts, calls)
	}
}

func TestDo_RecoversAfterFailures(t *testing.T) {
	calls := 0
	result := Do(context.Background(), fastConfig(5), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("transient"))
		}
		return nil
	})

	if result.Err != nil {
		t.Errorf("Err = %v, want nil", result.Err)
	}
	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}
}

func TestDo_ExhaustsRetries(t *testing.T) {
	boom := errors.New("still down")
	calls := 0
	result := Do(context.Background(), fastConfig(2), func(ctx context.Context) error {
		calls++
		return boom
	})

	if !errors.Is(result.Err, ErrMaxRetriesExceeded) {
		t.Errorf("Err = %v, want ErrMaxRetriesExceeded", result.Err)
	}
	if calls != 3 { // initial + 2 retries
		t.Errorf("calls = %d, want 3", calls)
	}
	if !errors.Is(result.LastError, boom) {
		t.Errorf("LastError = %v, want %v", result.LastError, boom)
	}
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	declined := errors.New("card declined")
	calls := 0
	result := Do(context.Background(), fastConfig(5), func(ctx context.Context) error {
		calls++
		return Permanent(declined)
	})

	if !errors.Is(result.Err, declined) {
		t.Errorf("Err = %v, want %v", result.Err, declined)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Do(ctx, fastConfig(5), func(ctx context.Context) error {
		return errors.New("never reached")
	})

	if !errors.Is(result.Err, ErrContextCanceled) {
		t.Errorf("Err = %v, want ErrContextCanceled", result.Err)
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{
		MaxRetries:      5,
		InitialInterval: time.Hour, // backoff long enough that cancel wins
		MaxInterval:     time.Hour,
		Multiplier:      2.0,
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	result := Do(ctx, cfg, func(ctx context.Context) error {
		return errors.New("failing")
	})

	if !errors.Is(result.Err, ErrContextCanceled) {
		t.Errorf("Err = %v, want ErrContextCanceled", result.Err)
	}
	if result.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", result.Attempts)
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	r := New(&Config{MaxRetries: 1})

	if r.config.InitialInterval != time.Second {
		t.Errorf("InitialInterval = %v, want 1s", r.config.InitialInterval)
	}
	if r.config.MaxInterval != 30*time.Second {
		t.Errorf("MaxInterval = %v, want 30s", r.config.MaxInterval)
	}
	if r.config.Multiplier != 2.0 {
		t.Errorf("Multiplier = %f, want 2.0", r.config.Multiplier)
	}
}

func TestJitter_WithinBounds(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		d := jitter(base, 0.1)
		if d < 90*time.Millisecond || d > 110*time.Millisecond {
			t.Fatalf("jitter(%v, 0.1) = %v, outside bounds", base, d)
		}
	}
	if jitter(base, 0) != base {
		t.Error("zero factor should return the interval unchanged")
	}
}

func TestErrorWrappers_PreserveNil(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) != nil")
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) != nil")
	}
}
