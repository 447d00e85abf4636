// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package guardrails screens the user query before it is interpolated into
// the crew prompts.
//
// Example usage:
//
//	guard := guardrails.New(
//	    guardrails.WithPromptInjectionDetector(),
//	    guardrails.WithMaxQueryLength(2000),
//	)
//	if result := guard.CheckInput(ctx, query); result.Blocked {
//	    return result.Reason
//	}
package guardrails

import (
	"context"
	"sync"
)

// CheckResult represents the outcome of a guardrail check.
type CheckResult struct {
	// Blocked indicates the query should not proceed.
	Blocked bool

	// Reason explains why the query was blocked (empty if not blocked).
	Reason string

	// GuardrailID identifies which guardrail triggered the block.
	GuardrailID string

	// Confidence is the detection confidence (0.0-1.0).
	Confidence float64

	// Metadata contains additional context from the check.
	Metadata map[string]any
}

// InputChecker validates a query before it reaches the model.
type InputChecker interface {
	CheckInput(ctx context.Context, input string) CheckResult
	ID() string
}

// Guardrails runs input checkers in registration order.
type Guardrails struct {
	mu            sync.RWMutex
	inputCheckers []InputChecker
	checked       int64
	blocked       int64
}

// Option configures the Guardrails instance.
type Option func(*Guardrails)

// New creates a new Guardrails instance with the given options.
func New(opts ...Option) *Guardrails {
	g := &Guardrails{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithInputChecker adds an input checker.
func WithInputChecker(checker InputChecker) Option {
	return func(g *Guardrails) {
		g.inputCheckers = append(g.inputCheckers, checker)
	}
}

// CheckInput returns the first blocking result, or an unblocked result when
// every checker passes. A nil Guardrails never blocks.
func (g *Guardrails) CheckInput(ctx context.Context, input string) CheckResult {
	if g == nil {
		return CheckResult{}
	}
	g.mu.RLock()
	checkers := g.inputCheckers
	g.mu.RUnlock()

	result := CheckResult{}
	for _, checker := range checkers {
		if r := checker.CheckInput(ctx, input); r.Blocked {
			result = r
			break
		}
	}

	g.mu.Lock()
	g.checked++
	if result.Blocked {
		g.blocked++
	}
	g.mu.Unlock()
	return result
}

// Stats contains guardrail counters.
type Stats struct {
	InputCheckers int   `json:"input_checkers"`
	Checked       int64 `json:"checked"`
	Blocked       int64 `json:"blocked"`
}

// Stats returns current counters. A nil Guardrails reports zeros.
func (g *Guardrails) Stats() Stats {
	if g == nil {
		return Stats{}
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Stats{
		InputCheckers: len(g.inputCheckers),
		Checked:       g.checked,
		Blocked:       g.blocked,
	}
}
