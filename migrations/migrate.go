package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"slices"

	"github.com/lib/pq"
)

//go:embed *.sql
var files embed.FS

const (
	createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations_slots (
	filename   TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	selectApplied = `SELECT EXISTS (SELECT 1 FROM schema_migrations_slots WHERE filename = $1)`
	insertApplied = `INSERT INTO schema_migrations_slots (filename) VALUES ($1) ON CONFLICT (filename) DO NOTHING`
)

// Up применяет встроенные *.sql миграции по порядку имен
// Уже примененные файлы пропускаются
func Up(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("migrations: db is required")
	}

	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("migrations: ensure migrations table: %w", err)
	}

	names, err := Names()
	if err != nil {
		return err
	}

	for _, name := range names {
		if err := apply(ctx, db, name); err != nil {
			return err
		}
	}

	return nil
}

// Names возвращает отсортированный список встроенных миграций
func Names() ([]string, error) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("migrations: list embedded files: %w", err)
	}
	slices.Sort(names)
	return names, nil
}

func apply(ctx context.Context, db *sql.DB, name string) error {
	var applied bool
	if err := db.QueryRowContext(ctx, selectApplied, name).Scan(&applied); err != nil {
		return fmt.Errorf("migrations: check %s: %w", name, err)
	}
	if applied {
		return nil
	}

	body, err := files.ReadFile(name)
	if err != nil {
		return fmt.Errorf("migrations: read %s: %w", name, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrations: begin tx for %s: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, string(body)); err != nil {
		_ = tx.Rollback()
		if !isIgnorable(err) {
			return fmt.Errorf("migrations: apply %s: %w", name, err)
		}
		// схема уже создана вручную, просто отмечаем файл
		if _, err := db.ExecContext(ctx, insertApplied, name); err != nil {
			return fmt.Errorf("migrations: record %s after ignored error: %w", name, err)
		}
		return nil
	}

	if _, err := tx.ExecContext(ctx, insertApplied, name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migrations: record %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrations: commit %s: %w", name, err)
	}
	return nil
}

func isIgnorable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	switch pqErr.Code {
	case "42P07", // duplicate_table
		"42710", // duplicate_object
		"42701": // duplicate_column
		return true
	default:
		return false
	}
}
