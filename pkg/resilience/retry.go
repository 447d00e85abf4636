// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package resilience bounds and retries calls to the model backends.
package resilience

import (
	"context"
	stderrors "errors"
	"math"
	"math/rand"
	"time"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/errors"
)

// RetryConfig controls retries with exponential backoff.
type RetryConfig struct {
	// MaxAttempts counts the first call. Values below 1 mean 1.
	MaxAttempts int

	InitialDelay time.Duration
	MaxDelay     time.Duration

	// Multiplier grows the delay per attempt (default 2.0).
	Multiplier float64

	// Jitter spreads each delay by up to ±Jitter of its value.
	Jitter float64

	// IsRecoverable decides whether err is worth another attempt. Nil
	// retries typed errors marked recoverable.
	IsRecoverable func(error) bool

	// OnRetry, when set, runs before each wait with the attempt about to be
	// made (starting at 2), the error that caused it and the delay.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryConfig returns a three-attempt exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		Multiplier:    2.0,
		Jitter:        0.1,
		IsRecoverable: isRecoverableDefault,
	}
}

// NoRetry runs the call exactly once.
func NoRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 1}
}

// WithMaxAttempts returns a copy with MaxAttempts set.
func (rc RetryConfig) WithMaxAttempts(n int) RetryConfig {
	rc.MaxAttempts = n
	return rc
}

// WithInitialDelay returns a copy with InitialDelay set.
func (rc RetryConfig) WithInitialDelay(d time.Duration) RetryConfig {
	rc.InitialDelay = d
	return rc
}

// WithOnRetry returns a copy that reports each retry to fn.
func (rc RetryConfig) WithOnRetry(fn func(attempt int, err error, delay time.Duration)) RetryConfig {
	rc.OnRetry = fn
	return rc
}

// Do calls fn until it succeeds, fails with an unrecoverable error or runs
// out of attempts. The last error is returned. Cancellation while waiting
// yields a CodeContextLost error.
func (rc RetryConfig) Do(ctx context.Context, fn func() error) error {
	attempts := max(rc.MaxAttempts, 1)
	recoverable := rc.IsRecoverable
	if recoverable == nil {
		recoverable = isRecoverableDefault
	}

	err := fn()
	for attempt := 2; err != nil && attempt <= attempts && recoverable(err); attempt++ {
		delay := rc.backoff(attempt - 1)
		if rc.OnRetry != nil {
			rc.OnRetry(attempt, err, delay)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.New(errors.CodeContextLost, "context canceled during retry", ctx.Err()).
				WithContext("attempt", attempt).
				WithContext("max_attempts", attempts)
		case <-timer.C:
		}
		err = fn()
	}
	return err
}

// DoWithResult is Do for calls that return a value.
func DoWithResult[T any](ctx context.Context, rc RetryConfig, fn func() (T, error)) (T, error) {
	var result T
	err := rc.Do(ctx, func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	return result, err
}

// backoff returns the wait before retry n (n >= 1).
func (rc RetryConfig) backoff(n int) time.Duration {
	multiplier := rc.Multiplier
	if multiplier == 0 {
		multiplier = 2.0
	}
	delay := time.Duration(float64(rc.InitialDelay) * math.Pow(multiplier, float64(n-1)))
	if rc.MaxDelay > 0 && delay > rc.MaxDelay {
		delay = rc.MaxDelay
	}
	if rc.Jitter > 0 {
		delay += time.Duration(float64(delay) * rc.Jitter * 2 * (rand.Float64() - 0.5))
	}
	return max(delay, 0)
}

func isRecoverableDefault(err error) bool {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Recoverable
	}
	return false
}
