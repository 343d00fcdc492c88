package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

var (
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrContextCanceled    = errors.New("context canceled during retry")
)

// Config contains retry configuration
type Config struct {
	// MaxRetries is the number of retry attempts after the initial one
	MaxRetries int
	// InitialInterval is the first backoff interval
	InitialInterval time.Duration
	// MaxInterval caps the backoff interval
	MaxInterval time.Duration
	// Multiplier grows the interval after each failed attempt
	Multiplier float64
	// JitterFactor randomizes each interval by ±factor to avoid herding
	JitterFactor float64
}

// DefaultConfig returns default retry configuration: 1s, 2s, 4s, 8s, 16s,
// capped at 30s.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      5,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// Operation is the function to be retried
type Operation func(ctx context.Context) error

// RetryableError marks an error worth retrying.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable marks an error as retryable
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// PermanentError marks an error that will never succeed on retry.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks an error as not retryable
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Result contains the outcome of a retried operation
type Result struct {
	// Err is nil on success, otherwise ErrMaxRetriesExceeded,
	// ErrContextCanceled, or the unwrapped permanent error
	Err error
	// Attempts is the total number of attempts made, including the first
	Attempts int
	// TotalDuration is the elapsed time including backoff waits
	TotalDuration time.Duration
	// LastError is the error from the final attempt
	LastError error
}

// Retrier runs operations with exponential backoff
type Retrier struct {
	config *Config
}

// New creates a new Retrier with the given configuration
func New(config *Config) *Retrier {
	if config == nil {
		config = DefaultConfig()
	}
	if config.InitialInterval <= 0 {
		config.InitialInterval = time.Second
	}
	if config.MaxInterval <= 0 {
		config.MaxInterval = 30 * time.Second
	}
	if config.Multiplier <= 1 {
		config.Multiplier = 2.0
	}
	if config.JitterFactor < 0 {
		config.JitterFactor = 0
	}
	if config.JitterFactor > 1 {
		config.JitterFactor = 1
	}
	return &Retrier{config: config}
}

// Do executes the operation, retrying with backoff until it succeeds, a
// permanent error surfaces, the context is cancelled, or retries run out.
func (r *Retrier) Do(ctx context.Context, op Operation) *Result {
	start := time.Now()
	result := &Result{}
	interval := r.config.InitialInterval

	for attempt := 0; ; attempt++ {
		result.Attempts = attempt + 1

		if ctx.Err() != nil {
			result.Err = ErrContextCanceled
			break
		}

		err := op(ctx)
		if err == nil {
			break
		}
		result.LastError = err

		var perm *PermanentError
		if errors.As(err, &perm) {
			result.Err = perm.Err
			result.LastError = perm.Err
			break
		}

		if attempt == r.config.MaxRetries {
			result.Err = ErrMaxRetriesExceeded
			break
		}

		select {
		case <-ctx.Done():
			result.Err = ErrContextCanceled
		case <-time.After(jitter(interval, r.config.JitterFactor)):
		}
		if result.Err != nil {
			break
		}

		interval = time.Duration(float64(interval) * r.config.Multiplier)
		if interval > r.config.MaxInterval {
			interval = r.config.MaxInterval
		}
	}

	result.TotalDuration = time.Since(start)
	return result
}

// Do is a convenience function that builds a one-shot retrier
func Do(ctx context.Context, config *Config, op Operation) *Result {
	return New(config).Do(ctx, op)
}

func jitter(d time.Duration, factor float64) time.Duration {
	if factor <= 0 {
		return d
	}
	spread := float64(d) * factor
	out := float64(d) + (rand.Float64()*2-1)*spread
	if out < 0 {
		return d
	}
	return time.Duration(out)
}
