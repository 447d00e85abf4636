// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"time"
)

// EventType identifies a semantic event emitted while a crew runs.
type EventType string

const (
	EventRunStarted    EventType = "crew.run.started"
	EventRunCompleted  EventType = "crew.run.completed"
	EventRunFailed     EventType = "crew.run.failed"
	EventTaskStarted   EventType = "crew.task.started"
	EventTaskCompleted EventType = "crew.task.completed"
	EventTaskSkipped   EventType = "crew.task.skipped"
	EventDocumentError EventType = "crew.document.error"
)

// Event captures a semantic logging event.
type Event struct {
	Type      EventType
	RunID     string
	Task      string
	Role      string
	Timestamp time.Time
	Payload   map[string]any
}

// EventEmitter receives semantic events.
type EventEmitter interface {
	Emit(ctx context.Context, event Event)
}

// NoopEventEmitter is a default no-op implementation.
type NoopEventEmitter struct{}

// Emit implements EventEmitter.
func (NoopEventEmitter) Emit(_ context.Context, _ Event) {}

// EventEmitterFunc adapts a function to EventEmitter.
type EventEmitterFunc func(ctx context.Context, event Event)

// Emit implements EventEmitter.
func (f EventEmitterFunc) Emit(ctx context.Context, event Event) { f(ctx, event) }

// NewEvent builds an event stamped with the current UTC time.
func NewEvent(eventType EventType, runID, task, role string, payload map[string]any) Event {
	return Event{
		Type:      eventType,
		RunID:     runID,
		Task:      task,
		Role:      role,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// MultiEmitter fans an event out to every emitter in order.
type MultiEmitter []EventEmitter

// Emit implements EventEmitter.
func (m MultiEmitter) Emit(ctx context.Context, event Event) {
	for _, e := range m {
		if e != nil {
			e.Emit(ctx, event)
		}
	}
}
