// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists extraction results to a local SQLite database so
// repeated runs against a fleet can be inspected and diffed later. The
// extraction engine itself writes nothing; the CLI opens a Store only when
// asked to save.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meshintel/netharvest/pkg/types"
)

// Store manages the results SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the results database at path and bootstraps the
// schema if it does not exist.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening results database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating results schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			host TEXT NOT NULL,
			table_name TEXT NOT NULL,
			response_type TEXT NOT NULL,
			item_count INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			item_key TEXT,
			fields TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_run_id ON records(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_host_table ON runs(host, table_name)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveResult writes one extraction result as a run row plus one record row
// per item, with field values serialized as JSON.
func (s *Store) SaveResult(r *types.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (host, table_name, response_type, item_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		r.Host, r.Table, string(r.Type), r.Count, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading run id: %w", err)
	}

	insert := func(position int, key string, fields any) error {
		data, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("marshaling record %d: %w", position, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO records (run_id, position, item_key, fields) VALUES (?, ?, ?, ?)`,
			runID, position, key, string(data),
		); err != nil {
			return fmt.Errorf("inserting record %d: %w", position, err)
		}
		return nil
	}

	switch r.Type {
	case types.ResponseItems:
		for i, item := range r.Items {
			if err := insert(i, item.Key, item.Fields); err != nil {
				return err
			}
		}
	default:
		for i, rec := range r.Records {
			if err := insert(i, "", rec); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// RunCount returns the number of saved runs, for status output.
func (s *Store) RunCount() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting runs: %w", err)
	}
	return n, nil
}
