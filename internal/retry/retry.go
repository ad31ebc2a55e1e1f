// Wayfarer - Offline-Resilient Location Data Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package retry runs fallible operations under a bounded exponential
// backoff policy.
//
// The first attempt runs immediately. After each failure the classifier
// decides whether the error is worth retrying; if it is and attempts
// remain, Do waits for the current delay, doubles it (capped at MaxDelay)
// and tries again:
//
//	attempt 1 -> fail -> wait 1s
//	attempt 2 -> fail -> wait 2s
//	attempt 3 -> fail -> give up (ExhaustedError)
//
// Waits honor context cancellation.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
)

// Default policy values.
const (
	DefaultMaxAttempts    = 3
	DefaultInitialDelay   = time.Second
	DefaultMaxDelay       = 10 * time.Second
	DefaultAttemptTimeout = 10 * time.Second
)

// Class is the outcome of classifying an error.
type Class int

const (
	// NonRetryable errors are returned immediately.
	NonRetryable Class = iota
	// Retryable errors are retried while attempts remain.
	Retryable
)

// Classifier decides whether an error is retryable.
type Classifier func(error) Class

// Policy configures Do. The zero value is usable and equals DefaultPolicy.
type Policy struct {
	// Name labels log lines and metrics.
	Name string

	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration

	// AttemptTimeout bounds each individual attempt. Zero disables it.
	AttemptTimeout time.Duration

	// Classify defaults to DefaultClassifier.
	Classify Classifier

	// Sleep waits for d or until ctx is done. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns the standard remote-fetch policy.
func DefaultPolicy(name string) Policy {
	return Policy{
		Name:           name,
		MaxAttempts:    DefaultMaxAttempts,
		InitialDelay:   DefaultInitialDelay,
		MaxDelay:       DefaultMaxDelay,
		AttemptTimeout: DefaultAttemptTimeout,
		Classify:       DefaultClassifier,
	}
}

// PolicyFromConfig builds a named policy from the retry config section.
// Zero fields fall back to the defaults.
func PolicyFromConfig(name string, cfg config.RetryConfig) Policy {
	p := DefaultPolicy(name)
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialDelay > 0 {
		p.InitialDelay = cfg.InitialDelay
	}
	if cfg.MaxDelay > 0 {
		p.MaxDelay = cfg.MaxDelay
	}
	if cfg.AttemptTimeout > 0 {
		p.AttemptTimeout = cfg.AttemptTimeout
	}
	return p
}

func (p Policy) withDefaults() Policy {
	if p.Name == "" {
		p.Name = "default"
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = DefaultInitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	if p.Classify == nil {
		p.Classify = DefaultClassifier
	}
	if p.Sleep == nil {
		p.Sleep = sleepContext
	}
	return p
}

// ExhaustedError is returned when every attempt failed with a retryable
// error. It unwraps to the last error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("max retry attempts reached (%d): %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do runs op under policy p and returns its first successful result.
//
// A non-retryable error is returned as-is after the attempt that produced
// it. If the context is cancelled during a backoff wait, ctx.Err() is
// returned without further attempts.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()
	log := logging.Ctx(ctx)

	var zero T
	delay := p.InitialDelay
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := runAttempt(ctx, p, op)
		if err == nil {
			metrics.RecordRetryAttempt(p.Name, "success")
			if attempt > 1 {
				log.Info().Str("policy", p.Name).Int("attempt", attempt).Msg("Succeeded after retry")
			}
			return result, nil
		}

		// An attempt cut short by the caller's own cancellation is not a
		// remote failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}

		if p.Classify(err) == NonRetryable {
			metrics.RecordRetryAttempt(p.Name, "fatal")
			return zero, err
		}
		metrics.RecordRetryAttempt(p.Name, "retryable")

		if attempt >= p.MaxAttempts {
			return zero, &ExhaustedError{Attempts: attempt, Err: err}
		}

		log.Warn().
			Err(err).
			Str("policy", p.Name).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("Retry attempt")

		if err := p.Sleep(ctx, delay); err != nil {
			return zero, err
		}
		delay = min(delay*2, p.MaxDelay)
	}
}

func runAttempt[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	if p.AttemptTimeout <= 0 {
		return op(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, p.AttemptTimeout)
	defer cancel()
	return op(attemptCtx)
}

// Backoff returns the wait after the given failed attempt (1-based) under p.
func Backoff(p Policy, attempt int) time.Duration {
	p = p.withDefaults()
	delay := p.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = min(delay*2, p.MaxDelay)
		if delay == p.MaxDelay {
			break
		}
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retryableError is implemented by error types that know their own class.
type retryableError interface {
	Retryable() bool
}

// DefaultClassifier treats network-level failures as retryable:
//   - errors with a Retryable() bool method returning true
//   - net.Error timeouts
//   - context.DeadlineExceeded (the per-attempt timeout fired)
//
// Everything else is fatal.
func DefaultClassifier(err error) Class {
	if err == nil {
		return NonRetryable
	}
	var re retryableError
	if errors.As(err, &re) {
		if re.Retryable() {
			return Retryable
		}
		return NonRetryable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Retryable
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return Retryable
	}
	var oe *net.OpError
	if errors.As(err, &oe) {
		return Retryable
	}
	return NonRetryable
}
