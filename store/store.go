// Package store persists dependency parses in SQLite so repeated texts do
// not reach the linguistic engine again.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// timeLayout is how SQLite's CURRENT_TIMESTAMP formats times (UTC).
const timeLayout = "2006-01-02 15:04:05"

// Parse represents a row in the parses table.
type Parse struct {
	Key       string `json:"key"`
	Engine    string `json:"engine"`
	Lang      string `json:"lang"`
	CoNLLU    string `json:"conllu"`
	CreatedAt string `json:"created_at"`
	Hits      int    `json:"hits"`
}

// Stats summarizes the cache.
type Stats struct {
	Entries   int            `json:"entries"`
	Hits      int            `json:"hits"`
	Languages map[string]int `json:"languages"`
}

// Store wraps the SQLite parse cache.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path, creates the
// schema and runs pending migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Get returns the CoNLL-U stored under key and counts the hit.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var conllu string
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, "SELECT conllu FROM parses WHERE key = ?", key).Scan(&conllu); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "UPDATE parses SET hits = hits + 1 WHERE key = ?", key)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading parse: %w", err)
	}
	return conllu, true, nil
}

// Put stores a parse, replacing an older one under the same key.
func (s *Store) Put(ctx context.Context, key, engine, lang, conllu string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO parses (key, engine, lang, conllu)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			engine = excluded.engine,
			lang = excluded.lang,
			conllu = excluded.conllu,
			created_at = CURRENT_TIMESTAMP
	`, key, engine, lang, conllu)
	if err != nil {
		return fmt.Errorf("storing parse: %w", err)
	}
	return nil
}

// Lookup returns the full row stored under key, or nil.
func (s *Store) Lookup(ctx context.Context, key string) (*Parse, error) {
	var p Parse
	err := s.db.QueryRowContext(ctx, `
		SELECT key, engine, lang, conllu, created_at, hits FROM parses WHERE key = ?
	`, key).Scan(&p.Key, &p.Engine, &p.Lang, &p.CoNLLU, &p.CreatedAt, &p.Hits)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up parse: %w", err)
	}
	return &p, nil
}

// Stats counts entries and hits, overall and per language.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Languages: make(map[string]int)}
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(hits), 0) FROM parses").Scan(&stats.Entries, &stats.Hits); err != nil {
		return nil, fmt.Errorf("counting parses: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT lang, COUNT(*) FROM parses GROUP BY lang")
	if err != nil {
		return nil, fmt.Errorf("counting languages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var lang string
		var n int
		if err := rows.Scan(&lang, &n); err != nil {
			return nil, err
		}
		stats.Languages[lang] = n
	}
	return stats, rows.Err()
}

// Purge deletes parses stored before the given time and returns how many
// were removed.
func (s *Store) Purge(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM parses WHERE created_at < ?", before.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("purging parses: %w", err)
	}
	return res.RowsAffected()
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
