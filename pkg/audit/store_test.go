// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/core"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	records := []Record{
		{RunID: "run-1", Type: string(core.EventTaskStarted), Task: "verification", Role: "Blood Report Verifier"},
		{RunID: "run-1", Type: string(core.EventTaskCompleted), Task: "verification", Role: "Blood Report Verifier",
			Payload: map[string]any{"duration_ms": float64(12)}},
		{RunID: "run-2", Type: string(core.EventTaskSkipped), Task: "triage", Role: "Triage Nurse"},
	}
	for _, rec := range records {
		if err := store.Record(ctx, rec); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := store.List(ctx, Filter{RunID: "run-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records for run-1, got %d", len(got))
	}
	if got[1].Payload["duration_ms"] != float64(12) {
		t.Errorf("payload not preserved: %v", got[1].Payload)
	}
	if got[0].Timestamp.IsZero() {
		t.Errorf("expected timestamp to be set")
	}

	skipped, err := store.List(ctx, Filter{Type: string(core.EventTaskSkipped)})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(skipped) != 1 || skipped[0].Task != "triage" {
		t.Fatalf("unexpected skipped records: %+v", skipped)
	}

	limited, err := store.List(ctx, Filter{Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	exerciseStore(t, store)
}

func TestNewSQLiteStoreNilDB(t *testing.T) {
	if _, err := NewSQLiteStore(nil); err == nil {
		t.Fatal("expected error for nil db")
	}
}

type failingStore struct{ MemoryStore }

func (f *failingStore) Record(context.Context, Record) error { return errors.New("disk full") }

func TestEmitter(t *testing.T) {
	store := NewMemoryStore()
	emit := Emitter(store, nil)
	ev := core.NewEvent(core.EventRunStarted, "run-9", "", "", map[string]any{"tasks": 4})
	ev.Timestamp = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	emit.Emit(context.Background(), ev)

	got, _ := store.List(context.Background(), Filter{})
	if len(got) != 1 || got[0].RunID != "run-9" || got[0].Type != string(core.EventRunStarted) {
		t.Fatalf("unexpected records: %+v", got)
	}
	if !got[0].Timestamp.Equal(ev.Timestamp) {
		t.Errorf("timestamp not preserved: %v", got[0].Timestamp)
	}

	// store failures are swallowed
	Emitter(&failingStore{}, nil).Emit(context.Background(), ev)
}

func TestHealthChecker(t *testing.T) {
	result := HealthChecker(NewMemoryStore()).Check(context.Background())
	if result.Status != core.HealthHealthy {
		t.Fatalf("memory store should be healthy: %+v", result)
	}

	store, err := OpenSQLite(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	_ = store.Close()
	result = HealthChecker(store).Check(context.Background())
	if result.Status != core.HealthDegraded {
		t.Fatalf("closed store should be degraded: %+v", result)
	}
}
