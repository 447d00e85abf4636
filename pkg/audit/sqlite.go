// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"
	"database/sql"
	"errors"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists audit records in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at dsn and ensures the schema.
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	store, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore wraps an open database and ensures the schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Record stores a single audit record.
func (s *SQLiteStore) Record(ctx context.Context, rec Record) error {
	payload, err := encodePayload(rec.Payload)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO crew_audit_events (run_id, event_type, task, role, payload_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		rec.RunID,
		rec.Type,
		rec.Task,
		rec.Role,
		string(payload),
		normalizeTime(rec.Timestamp),
	)
	return err
}

// List returns records matching the filter in insertion order.
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]Record, error) {
	query := `SELECT run_id, event_type, task, role, payload_json, created_at FROM crew_audit_events`
	var args []any
	where := ""
	addFilter := func(clause string, value any) {
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, value)
	}
	if filter.RunID != "" {
		addFilter("run_id = ?", filter.RunID)
	}
	if filter.Type != "" {
		addFilter("event_type = ?", filter.Type)
	}
	query += where + " ORDER BY id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec     Record
			payload sql.NullString
			created sql.NullTime
		)
		if err := rows.Scan(&rec.RunID, &rec.Type, &rec.Task, &rec.Role, &payload, &created); err != nil {
			return nil, err
		}
		if payload.Valid {
			if decoded, err := decodePayload([]byte(payload.String)); err == nil {
				rec.Payload = decoded
			}
		}
		if created.Valid {
			rec.Timestamp = created.Time
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS crew_audit_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			task TEXT,
			role TEXT,
			payload_json TEXT,
			created_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_crew_audit_run ON crew_audit_events(run_id);
		CREATE INDEX IF NOT EXISTS idx_crew_audit_type ON crew_audit_events(event_type);
	`)
	return err
}
