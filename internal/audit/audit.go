// Package audit keeps an append-only log of administrative actions in
// a local SQLite file. The log is a side record: writing it must never
// fail the action being recorded, so callers log and continue on error.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Entry struct {
	ID        int64
	Action    string
	Entity    string
	EntityID  string
	Detail    string
	CreatedAt time.Time
}

type Log struct {
	db *sql.DB
}

func NewLog(path string) (*Log, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect to audit database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("create audit tables: %w", err)
	}

	return &Log{db: db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS audit_log (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            action TEXT NOT NULL,
            entity TEXT NOT NULL,
            entity_id TEXT NOT NULL,
            detail TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(entity, entity_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_log(action)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_log(created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %v", query, err)
		}
	}
	return nil
}

// Record appends one entry. There is no update or delete path.
func (l *Log) Record(ctx context.Context, action, entity, entityID, detail string) error {
	query := `INSERT INTO audit_log (action, entity, entity_id, detail, created_at) VALUES (?, ?, ?, ?, ?)`

	_, err := l.db.ExecContext(ctx, query, action, entity, entityID, detail, time.Now().UTC())
	return err
}

// ByEntity returns the history of one document, newest first.
func (l *Log) ByEntity(ctx context.Context, entity, entityID string) ([]Entry, error) {
	query := `
        SELECT id, action, entity, entity_id, detail, created_at
        FROM audit_log
        WHERE entity = ? AND entity_id = ?
        ORDER BY created_at DESC, id DESC
    `

	rows, err := l.db.QueryContext(ctx, query, entity, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Recent returns the latest entries across all entities.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
        SELECT id, action, entity, entity_id, detail, created_at
        FROM audit_log
        ORDER BY created_at DESC, id DESC
        LIMIT ?
    `

	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var detail sql.NullString
		err := rows.Scan(&e.ID, &e.Action, &e.Entity, &e.EntityID, &detail, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		e.Detail = detail.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (l *Log) Close() error {
	return l.db.Close()
}
