package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cgps-group/AMRIE/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens the audit database, creating the file and schema if
// they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	store, err := newSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	store.dbPath = dbPath
	return store, nil
}

func newSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// createSchema creates the decision table and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS decisions (
		id TEXT PRIMARY KEY,
		organism_code TEXT NOT NULL,
		requested_code TEXT DEFAULT '',
		antibiotic_code TEXT NOT NULL,
		base_code TEXT NOT NULL,
		guideline TEXT NOT NULL,
		test_method TEXT NOT NULL,
		raw_value TEXT DEFAULT '',
		raw_category TEXT NOT NULL,
		final_category TEXT NOT NULL,
		applied_rule_ids TEXT NOT NULL DEFAULT '[]',
		flags TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_organism ON decisions(organism_code);
	CREATE INDEX IF NOT EXISTS idx_decisions_created_at ON decisions(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (*Record, error) {
	r := &Record{}
	var guideline, method, raw, final, ruleIDs, flags string

	err := s.Scan(
		&r.ID, &r.OrganismCode, &r.RequestedCode, &r.AntibioticCode, &r.BaseCode,
		&guideline, &method, &r.RawValue, &raw, &final, &ruleIDs, &flags, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Guideline = domain.Guideline(guideline)
	r.TestMethod = domain.TestMethod(method)
	r.RawCategory = domain.Category(raw)
	r.FinalCategory = domain.Category(final)
	if err := json.Unmarshal([]byte(ruleIDs), &r.AppliedRuleIDs); err != nil {
		return nil, fmt.Errorf("failed to decode rule IDs: %w", err)
	}
	if err := json.Unmarshal([]byte(flags), &r.Flags); err != nil {
		return nil, fmt.Errorf("failed to decode flags: %w", err)
	}
	return r, nil
}

// Save inserts a record.
func (s *SQLiteStore) Save(ctx context.Context, r *Record) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	ruleIDs, err := json.Marshal(nonNil(r.AppliedRuleIDs))
	if err != nil {
		return fmt.Errorf("failed to encode rule IDs: %w", err)
	}
	flags, err := json.Marshal(nonNil(r.Flags))
	if err != nil {
		return fmt.Errorf("failed to encode flags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO decisions (
			id, organism_code, requested_code, antibiotic_code, base_code,
			guideline, test_method, raw_value, raw_category, final_category,
			applied_rule_ids, flags, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		r.OrganismCode,
		r.RequestedCode,
		r.AntibioticCode,
		r.BaseCode,
		string(r.Guideline),
		string(r.TestMethod),
		r.RawValue,
		string(r.RawCategory),
		string(r.FinalCategory),
		string(ruleIDs),
		string(flags),
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT id, organism_code, requested_code, antibiotic_code, base_code,
		guideline, test_method, raw_value, raw_category, final_category,
		applied_rule_ids, flags, created_at
	FROM decisions`

// Get retrieves a record by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)

	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("decision %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return r, nil
}

// List returns records newest first.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY created_at DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// Count returns the total number of records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM decisions").Scan(&count)
	return count, err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
