// Package migrations applies the SQL schema shipped inside the binary.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/Abraxas-365/hireline/pkg/logx"
	"github.com/jmoiron/sqlx"
)

//go:embed sql/*.sql
var files embed.FS

// Migration is one numbered schema file
type Migration struct {
	Version string
	SQL     string
}

// All returns the embedded migrations ordered by version
func All() ([]Migration, error) {
	entries, err := fs.Glob(files, "sql/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)

	out := make([]Migration, 0, len(entries))
	for _, name := range entries {
		body, err := files.ReadFile(name)
		if err != nil {
			return nil, err
		}
		version := strings.TrimSuffix(strings.TrimPrefix(name, "sql/"), ".sql")
		out = append(out, Migration{Version: version, SQL: string(body)})
	}
	return out, nil
}

// Apply runs every migration not yet recorded in schema_migrations, each in its own transaction
func Apply(ctx context.Context, db *sqlx.DB) (int, error) {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return 0, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var applied []string
	if err := db.SelectContext(ctx, &applied, `SELECT version FROM schema_migrations`); err != nil {
		return 0, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	all, err := All()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range all {
		if done[m.Version] {
			continue
		}
		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return count, err
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			_ = tx.Rollback()
			return count, fmt.Errorf("migration %s failed: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version); err != nil {
			_ = tx.Rollback()
			return count, fmt.Errorf("failed to record migration %s: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return count, err
		}
		logx.Infof("✅ Applied migration %s", m.Version)
		count++
	}
	return count, nil
}
