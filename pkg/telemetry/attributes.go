// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides logging, tracing and metrics for the analyser.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Span and metric attribute keys.
const (
	AttrRunID      = "bloodtest.run.id"
	AttrCrewName   = "bloodtest.crew.name"
	AttrTaskCount  = "bloodtest.crew.task_count"
	AttrTaskName   = "bloodtest.task.name"
	AttrTaskIndex  = "bloodtest.task.index"
	AttrTaskStatus = "bloodtest.task.status"
	AttrRoleName   = "bloodtest.role.name"
	AttrRoleTools  = "bloodtest.role.tools"

	AttrDocumentRead  = "bloodtest.document.read"
	AttrDocumentError = "bloodtest.document.error"
	AttrDocumentChars = "bloodtest.document.chars"

	AttrLLMModel        = "gen_ai.request.model"
	AttrLLMTokensInput  = "gen_ai.usage.input_tokens"
	AttrLLMTokensOutput = "gen_ai.usage.output_tokens"
	AttrLLMDurationMs   = "gen_ai.duration_ms"
	AttrPromptChars     = "gen_ai.prompt.chars"
)

// TaskAttributes returns the attributes of a task span.
func TaskAttributes(runID, task, role string, index int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrRunID, runID),
		attribute.String(AttrTaskName, task),
		attribute.String(AttrRoleName, role),
		attribute.Int(AttrTaskIndex, index),
	}
}

// LLMAttributes returns attributes describing one model call.
func LLMAttributes(model string, inputTokens, outputTokens int, durationMs float64) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Float64(AttrLLMDurationMs, durationMs),
	}
	if model != "" {
		attrs = append(attrs, attribute.String(AttrLLMModel, model))
	}
	if inputTokens > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMTokensInput, inputTokens))
	}
	if outputTokens > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMTokensOutput, outputTokens))
	}
	return attrs
}

// DocumentAttributes describes a document read; errMsg is empty on success.
func DocumentAttributes(chars int, errMsg string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Bool(AttrDocumentRead, true),
		attribute.Int(AttrDocumentChars, chars),
	}
	if errMsg != "" {
		attrs = append(attrs, attribute.String(AttrDocumentError, Truncate(errMsg, 500)))
	}
	return attrs
}

// Truncate shortens s to maxLen bytes, marking the cut with "...".
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
