// Package migrations applies the embedded Postgres schema in version order.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/rs/zerolog/log"
)

//go:embed sql/*.sql
var files embed.FS

const versionsTable = "schema_migrations"

const createVersionsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version     TEXT PRIMARY KEY,
    applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Migration is one embedded SQL file
type Migration struct {
	Version string
	SQL     string
}

// Load returns the embedded migrations sorted by version
func Load() ([]Migration, error) {
	return load(files)
}

func load(fsys fs.FS) ([]Migration, error) {
	names, err := fs.Glob(fsys, "sql/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, Migration{
			Version: strings.TrimSuffix(path.Base(name), ".sql"),
			SQL:     string(body),
		})
	}
	return out, nil
}

// Result lists the versions a run applied and skipped
type Result struct {
	Applied []string
	Skipped []string
}

// Apply runs every embedded migration not yet recorded in schema_migrations.
// Each migration runs in its own transaction together with its version row.
func Apply(ctx context.Context, db *sql.DB) (*Result, error) {
	migrations, err := Load()
	if err != nil {
		return nil, err
	}
	return apply(ctx, db, migrations)
}

func apply(ctx context.Context, db *sql.DB, migrations []Migration) (*Result, error) {
	if _, err := db.ExecContext(ctx, createVersionsTable); err != nil {
		return nil, fmt.Errorf("create %s: %w", versionsTable, err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return nil, err
	}

	dialect := goqu.Dialect("postgres")
	result := &Result{}
	for _, m := range migrations {
		if _, ok := applied[m.Version]; ok {
			result.Skipped = append(result.Skipped, m.Version)
			continue
		}

		insert, args, err := dialect.Insert(versionsTable).
			Rows(goqu.Record{"version": m.Version, "applied_at": time.Now().UTC()}).
			Prepared(true).
			ToSQL()
		if err != nil {
			return result, fmt.Errorf("build version insert: %w", err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return result, fmt.Errorf("begin migration %s: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			_ = tx.Rollback()
			return result, fmt.Errorf("apply migration %s: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			_ = tx.Rollback()
			return result, fmt.Errorf("record migration %s: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return result, fmt.Errorf("commit migration %s: %w", m.Version, err)
		}

		log.Info().Str("version", m.Version).Msg("migration applied")
		result.Applied = append(result.Applied, m.Version)
	}
	return result, nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[string]struct{}, error) {
	query, _, err := goqu.Dialect("postgres").From(versionsTable).Select("version").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build version query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	out := map[string]struct{}{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out[v] = struct{}{}
	}
	return out, rows.Err()
}
