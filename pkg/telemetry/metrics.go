// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	stderrors "errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/errors"
)

// PipelineMetrics records crew runs, tasks, model calls and errors. A nil
// *PipelineMetrics is valid and records nothing.
type PipelineMetrics struct {
	runCounter     metric.Int64Counter
	taskCounter    metric.Int64Counter
	documentErrors metric.Int64Counter
	errorCounter   metric.Int64Counter
	tokenCounter   metric.Int64Counter
	retryCounter   metric.Int64Counter
	llmLatency     metric.Float64Histogram
	runDuration    metric.Float64Histogram
}

// NewPipelineMetrics creates the instruments on the global meter provider.
func NewPipelineMetrics() (*PipelineMetrics, error) {
	meter := otel.Meter("bloodtest/crew")
	m := &PipelineMetrics{}
	var err error

	if m.runCounter, err = meter.Int64Counter(
		"bloodtest.crew.runs",
		metric.WithDescription("Crew runs by outcome"),
	); err != nil {
		return nil, err
	}
	if m.taskCounter, err = meter.Int64Counter(
		"bloodtest.crew.tasks",
		metric.WithDescription("Crew tasks by role and status (completed, skipped, failed)"),
	); err != nil {
		return nil, err
	}
	if m.documentErrors, err = meter.Int64Counter(
		"bloodtest.document.errors",
		metric.WithDescription("Document reads that fell back to error text"),
	); err != nil {
		return nil, err
	}
	if m.errorCounter, err = meter.Int64Counter(
		"bloodtest.errors",
		metric.WithDescription("Errors by code and component"),
	); err != nil {
		return nil, err
	}
	if m.tokenCounter, err = meter.Int64Counter(
		"bloodtest.llm.tokens",
		metric.WithDescription("Tokens consumed by direction"),
		metric.WithUnit("{token}"),
	); err != nil {
		return nil, err
	}
	if m.retryCounter, err = meter.Int64Counter(
		"bloodtest.llm.retries",
		metric.WithDescription("Model calls retried after a recoverable failure"),
	); err != nil {
		return nil, err
	}
	if m.llmLatency, err = meter.Float64Histogram(
		"bloodtest.llm.duration",
		metric.WithDescription("Model call latency"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.runDuration, err = meter.Float64Histogram(
		"bloodtest.crew.run.duration",
		metric.WithDescription("End-to-end crew run latency"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordRun records a finished run.
func (m *PipelineMetrics) RecordRun(ctx context.Context, status string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.runCounter.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordTask records a task outcome for a role.
func (m *PipelineMetrics) RecordTask(ctx context.Context, role, status string) {
	if m == nil {
		return
	}
	m.taskCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("role", role),
		attribute.String("status", status),
	))
}

// RecordDocumentError counts a soft document failure.
func (m *PipelineMetrics) RecordDocumentError(ctx context.Context, role string) {
	if m == nil {
		return
	}
	m.documentErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("role", role)))
}

// RecordLLMCall records the latency and token usage of one model call.
func (m *PipelineMetrics) RecordLLMCall(ctx context.Context, role string, d time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.llmLatency.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("role", role)))
	if inputTokens > 0 {
		m.tokenCounter.Add(ctx, int64(inputTokens), metric.WithAttributes(attribute.String("direction", "input")))
	}
	if outputTokens > 0 {
		m.tokenCounter.Add(ctx, int64(outputTokens), metric.WithAttributes(attribute.String("direction", "output")))
	}
}

// RecordRetry counts a retried model call for role.
func (m *PipelineMetrics) RecordRetry(ctx context.Context, role string) {
	if m == nil {
		return
	}
	m.retryCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("role", role)))
}

// RecordError increments the error counter for err's code and component.
func (m *PipelineMetrics) RecordError(ctx context.Context, err error, component string) {
	if m == nil || err == nil {
		return
	}
	code, recoverable := "UNKNOWN", "unknown"
	var e *errors.Error
	if stderrors.As(err, &e) {
		code, recoverable = string(e.Code), e.RecoverableString()
	}
	m.errorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("error.code", code),
		attribute.String("component", component),
		attribute.String("recoverable", recoverable),
	))
}
