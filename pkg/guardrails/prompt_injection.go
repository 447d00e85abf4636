// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package guardrails

import (
	"context"
	"regexp"
	"unicode/utf8"
)

// PromptInjectionDetector flags queries that try to override the role
// prompts or forge sections of the prompt layout.
type PromptInjectionDetector struct {
	patterns  []*regexp.Regexp
	threshold float64
}

// PromptInjectionOption configures the prompt injection detector.
type PromptInjectionOption func(*PromptInjectionDetector)

var defaultInjectionPatterns = []string{
	// instruction override
	`(?i)(ignore|disregard|forget|override)\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`,

	// persona switch
	`(?i)you\s+are\s+(now|no\s+longer)\s+`,
	`(?i)pretend\s+(you\s+are|to\s+be)\s+`,

	// prompt extraction
	`(?i)(what\s+(is|are)|show\s+me|reveal|print|repeat)\s+your\s+(system\s+)?(prompt|instructions?|backstory)`,

	// jailbreak markers
	`(?i)\bDAN\s+mode\b`,
	`(?i)\bjailbreak`,
	`(?i)(developer|sudo|admin)\s+mode`,

	// forged prompt sections
	`(?m)^\s*(ROLE|GOAL|BACKSTORY|TASK|EXPECTED OUTPUT|RESPONSE|REPORT CONTENT)\s*:`,

	// chat template delimiters
	`<\|[^|]*\|>`,
	`(?i)\[/?INST\]`,
	`(?i)<</?SYS>>`,
}

// NewPromptInjectionDetector creates a detector with the default patterns.
func NewPromptInjectionDetector(opts ...PromptInjectionOption) *PromptInjectionDetector {
	d := &PromptInjectionDetector{
		patterns: make([]*regexp.Regexp, 0, len(defaultInjectionPatterns)),
	}
	for _, pattern := range defaultInjectionPatterns {
		d.patterns = append(d.patterns, regexp.MustCompile(pattern))
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WithInjectionPatterns adds custom patterns. Invalid patterns are ignored.
func WithInjectionPatterns(patterns []string) PromptInjectionOption {
	return func(d *PromptInjectionDetector) {
		for _, pattern := range patterns {
			if re, err := regexp.Compile(pattern); err == nil {
				d.patterns = append(d.patterns, re)
			}
		}
	}
}

// WithInjectionThreshold sets the confidence needed to block.
func WithInjectionThreshold(threshold float64) PromptInjectionOption {
	return func(d *PromptInjectionDetector) {
		if threshold >= 0 && threshold <= 1 {
			d.threshold = threshold
		}
	}
}

// ID returns the guardrail identifier.
func (d *PromptInjectionDetector) ID() string {
	return "prompt-injection"
}

// CheckInput analyzes input for prompt injection attempts.
func (d *PromptInjectionDetector) CheckInput(ctx context.Context, input string) CheckResult {
	if input == "" {
		return CheckResult{}
	}

	var matched []string
	for _, pattern := range d.patterns {
		if ctx.Err() != nil {
			return CheckResult{}
		}
		if pattern.MatchString(input) {
			matched = append(matched, pattern.String())
		}
	}
	if len(matched) == 0 {
		return CheckResult{}
	}

	// one match scores 0.7, each further match adds 0.1
	confidence := min(0.7+float64(len(matched)-1)*0.1, 1.0)
	if confidence < d.threshold {
		return CheckResult{Confidence: confidence}
	}
	return CheckResult{
		Blocked:     true,
		Reason:      "potential prompt injection detected",
		GuardrailID: d.ID(),
		Confidence:  confidence,
		Metadata: map[string]any{
			"matched_patterns": matched,
			"match_count":      len(matched),
		},
	}
}

// WithPromptInjectionDetector returns an option that adds prompt injection detection.
func WithPromptInjectionDetector(opts ...PromptInjectionOption) Option {
	return WithInputChecker(NewPromptInjectionDetector(opts...))
}

// MaxLengthChecker blocks queries longer than a rune limit.
type MaxLengthChecker struct {
	limit int
}

// ID returns the guardrail identifier.
func (c MaxLengthChecker) ID() string { return "max-length" }

// CheckInput implements InputChecker.
func (c MaxLengthChecker) CheckInput(_ context.Context, input string) CheckResult {
	if c.limit <= 0 {
		return CheckResult{}
	}
	if n := utf8.RuneCountInString(input); n > c.limit {
		return CheckResult{
			Blocked:     true,
			Reason:      "query is too long",
			GuardrailID: c.ID(),
			Confidence:  1.0,
			Metadata:    map[string]any{"length": n, "limit": c.limit},
		}
	}
	return CheckResult{}
}

// WithMaxQueryLength blocks queries longer than limit runes. Zero disables
// the check.
func WithMaxQueryLength(limit int) Option {
	return WithInputChecker(MaxLengthChecker{limit: limit})
}
