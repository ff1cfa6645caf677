// Package storage provides SQLite-backed persistence for estimate history.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jbctechsolutions/tokenmeter/internal/domain/history"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS estimate_records (
	id            TEXT PRIMARY KEY,
	model         TEXT NOT NULL,
	provider      TEXT NOT NULL,
	engine        TEXT NOT NULL,
	input_tokens  INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	cost_usd      REAL NOT NULL,
	cost_known    INTEGER NOT NULL,
	approximate   INTEGER NOT NULL,
	source        TEXT NOT NULL,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_estimate_records_model ON estimate_records(model);
CREATE INDEX IF NOT EXISTS idx_estimate_records_created_at ON estimate_records(created_at);
`

// HistoryRepository persists estimate records in SQLite.
type HistoryRepository struct {
	db *sql.DB
}

// OpenHistory opens (creating if necessary) the history database at path and
// applies the schema.
func OpenHistory(path string) (*HistoryRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply history schema: %w", err)
	}

	return &HistoryRepository{db: db}, nil
}

// NewHistoryRepository wraps an existing database handle. The caller is
// responsible for the schema; used by tests with in-memory databases.
func NewHistoryRepository(db *sql.DB) (*HistoryRepository, error) {
	if _, err := db.Exec(historySchema); err != nil {
		return nil, fmt.Errorf("failed to apply history schema: %w", err)
	}
	return &HistoryRepository{db: db}, nil
}

// Save persists a record. A missing ID or timestamp is filled in.
func (r *HistoryRepository) Save(ctx context.Context, rec *history.Record) error {
	if rec == nil {
		return fmt.Errorf("history record is nil")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO estimate_records (
			id, model, provider, engine, input_tokens, output_tokens,
			cost_usd, cost_known, approximate, source, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.Model,
		rec.Provider,
		rec.Engine,
		rec.InputTokens,
		rec.OutputTokens,
		rec.CostUSD,
		rec.CostKnown,
		rec.Approximate,
		rec.Source,
		rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save history record: %w", err)
	}

	return nil
}

// List retrieves records matching the filter, newest first.
func (r *HistoryRepository) List(ctx context.Context, filter history.Filter) ([]history.Record, error) {
	query := `
		SELECT id, model, provider, engine, input_tokens, output_tokens,
			cost_usd, cost_known, approximate, source, created_at
		FROM estimate_records
		WHERE 1=1
	`
	args := make([]any, 0)

	if filter.Model != "" {
		query += " AND model = ?"
		args = append(args, filter.Model)
	}

	if filter.Provider != "" {
		query += " AND provider = ?"
		args = append(args, filter.Provider)
	}

	if !filter.StartDate.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.StartDate.UTC().Format(time.RFC3339))
	}

	if !filter.EndDate.IsZero() {
		query += " AND created_at <= ?"
		args = append(args, filter.EndDate.UTC().Format(time.RFC3339))
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []history.Record
	for rows.Next() {
		var rec history.Record
		var createdAt string

		err := rows.Scan(
			&rec.ID,
			&rec.Model,
			&rec.Provider,
			&rec.Engine,
			&rec.InputTokens,
			&rec.OutputTokens,
			&rec.CostUSD,
			&rec.CostKnown,
			&rec.Approximate,
			&rec.Source,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}

		rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history records: %w", err)
	}

	return records, nil
}

// Clear deletes all records and reports how many were removed.
func (r *HistoryRepository) Clear(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM estimate_records")
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared records: %w", err)
	}
	return n, nil
}

// Close closes the underlying database handle.
func (r *HistoryRepository) Close() error {
	return r.db.Close()
}
