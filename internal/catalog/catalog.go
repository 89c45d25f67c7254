// Package catalog indexes saved tracer artifacts in a SQLite database kept
// next to the cache files.
//
// The catalog is advisory: the artifact files are the source of truth, and a
// missing or stale catalog row never changes what is loaded.
package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/san-kum/nucleosynth/internal/paths"
)

//go:embed schema.sql
var schemaSQL string

// Entry is one saved artifact.
type Entry struct {
	Key     paths.Key
	Path    string
	Rows    int
	Bytes   int64
	SavedAt time.Time
}

type Catalog struct {
	db *sql.DB
}

// Open creates or opens the catalog at path, creating parent directories.
func Open(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to catalog: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Record upserts the entry for e.Key.
func (c *Catalog) Record(ctx context.Context, e Entry) error {
	if err := e.Key.Validate(); err != nil {
		return err
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO artifacts (model, tracer_id, steps, path, rows, bytes, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (model, tracer_id, steps) DO UPDATE SET
			path = excluded.path,
			rows = excluded.rows,
			bytes = excluded.bytes,
			saved_at = excluded.saved_at`,
		e.Key.Model, e.Key.TracerID, paths.StepsLabel(e.Key.Steps),
		e.Path, e.Rows, e.Bytes, e.SavedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record %s: %w", e.Key, err)
	}
	return nil
}

// List returns the entries for model, every model when model is empty,
// ordered by model, tracer, and steps.
func (c *Catalog) List(ctx context.Context, model string) ([]Entry, error) {
	query := `SELECT model, tracer_id, steps, path, rows, bytes, saved_at FROM artifacts`
	var args []any
	if model != "" {
		query += ` WHERE model = ?`
		args = append(args, model)
	}
	query += ` ORDER BY model, tracer_id, steps`

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e              Entry
			steps, savedAt string
		)
		if err := rows.Scan(&e.Key.Model, &e.Key.TracerID, &steps, &e.Path, &e.Rows, &e.Bytes, &savedAt); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		if e.Key.Steps, err = parseSteps(steps); err != nil {
			return nil, err
		}
		if e.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
			return nil, fmt.Errorf("artifact %s: saved_at: %w", e.Key, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Forget removes the entry for k, if any.
func (c *Catalog) Forget(ctx context.Context, k paths.Key) error {
	_, err := c.db.ExecContext(ctx,
		`DELETE FROM artifacts WHERE model = ? AND tracer_id = ? AND steps = ?`,
		k.Model, k.TracerID, paths.StepsLabel(k.Steps))
	return err
}

func parseSteps(label string) ([]int, error) {
	parts := strings.Split(label, "-")
	steps := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("bad steps label %q: %w", label, err)
		}
		steps[i] = n
	}
	return steps, nil
}
