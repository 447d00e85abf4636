// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package llmtest

import (
	"context"
	"sync"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/core"
)

// EventCollector records crew events for later inspection.
type EventCollector struct {
	mu     sync.Mutex
	events []core.Event
}

// NewEventCollector creates an empty collector.
func NewEventCollector() *EventCollector {
	return &EventCollector{}
}

// Emit implements core.EventEmitter.
func (c *EventCollector) Emit(_ context.Context, event core.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// Events returns all collected events.
func (c *EventCollector) Events() []core.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Event, len(c.events))
	copy(out, c.events)
	return out
}

// EventTypes returns the types of all collected events in order.
func (c *EventCollector) EventTypes() []core.EventType {
	events := c.Events()
	types := make([]core.EventType, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

// HasEvent reports whether an event of the given type was collected.
func (c *EventCollector) HasEvent(eventType core.EventType) bool {
	return c.Count(eventType) > 0
}

// Count returns how many events of the given type were collected.
func (c *EventCollector) Count(eventType core.EventType) int {
	n := 0
	for _, e := range c.Events() {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// Reset clears collected events.
func (c *EventCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}
