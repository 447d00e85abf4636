// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/errors"
)

// WithTimeout runs fn with a context bounded by d. A zero duration leaves the
// parent context untouched. A deadline hit inside fn is reported as
// errors.CodeTimeout.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return fn(ctx)
	}

	callCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	result, err := fn(callCtx)
	if err != nil && stderrors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		var zero T
		return zero, errors.New(errors.CodeTimeout, "operation exceeded timeout", err).
			WithContext("timeout", d.String()).
			WithRecoverable(true)
	}
	return result, err
}
