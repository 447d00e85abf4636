// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package audit keeps a trail of crew run events. Only run metadata is
// recorded; prompts, report text and model output never reach the store.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/core"
)

// Record is one persisted event.
type Record struct {
	RunID     string         `json:"run_id"`
	Type      string         `json:"type"`
	Task      string         `json:"task,omitempty"`
	Role      string         `json:"role,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Store persists audit records.
type Store interface {
	Record(ctx context.Context, rec Record) error
	List(ctx context.Context, filter Filter) ([]Record, error)
}

// Filter limits audit queries.
type Filter struct {
	RunID string
	Type  string
	Limit int
}

// MemoryStore keeps audit records in memory.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryStore returns an in-memory audit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record appends a record.
func (s *MemoryStore) Record(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.Timestamp = normalizeTime(rec.Timestamp)
	s.records = append(s.records, rec)
	return nil
}

// List returns filtered records in insertion order.
func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		if filter.RunID != "" && rec.RunID != filter.RunID {
			continue
		}
		if filter.Type != "" && rec.Type != filter.Type {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// Emitter turns crew events into audit records. Store failures are logged
// and never interrupt the run.
func Emitter(store Store, logger *slog.Logger) core.EventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return core.EventEmitterFunc(func(ctx context.Context, ev core.Event) {
		rec := Record{
			RunID:     ev.RunID,
			Type:      string(ev.Type),
			Task:      ev.Task,
			Role:      ev.Role,
			Payload:   ev.Payload,
			Timestamp: ev.Timestamp,
		}
		if err := store.Record(ctx, rec); err != nil {
			logger.WarnContext(ctx, "audit record failed",
				slog.String("run_id", ev.RunID),
				slog.String("event", string(ev.Type)),
				slog.Any("error", err),
			)
		}
	})
}

func encodePayload(payload map[string]any) ([]byte, error) {
	if len(payload) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(payload)
}

func decodePayload(raw []byte) (map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeTime(value time.Time) time.Time {
	if value.IsZero() {
		return time.Now().UTC()
	}
	return value.UTC()
}
