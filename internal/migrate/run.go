// Package migrate applies the embedded SQL schema for the postgres session store.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/corruptguard/helix/internal/data/pgxutil"
	"github.com/jackc/pgx/v5"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// lockKey serializes concurrent migrators (agent and admin CLI) on one database.
const lockKey int64 = 0x68656c6978 // "helix"

const createLedgerSQL = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// Run applies every pending migration in lexical order and returns the versions it applied.
// Each migration runs in its own transaction holding an advisory lock, so repeated or
// concurrent calls apply a version at most once.
func Run(ctx context.Context, db *sql.DB) ([]string, error) {
	if _, err := db.ExecContext(ctx, createLedgerSQL); err != nil {
		return nil, fmt.Errorf("create schema_migrations table: %w", err)
	}

	versions, err := Versions()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "migrations")
	var applied []string
	for _, version := range versions {
		ran, applyErr := apply(ctx, db, version)
		if applyErr != nil {
			return applied, applyErr
		}
		if ran {
			logger.InfoContext(ctx, "applied migration", "version", version)
			applied = append(applied, version)
		}
	}
	return applied, nil
}

// Versions lists the embedded migration versions in the order Run applies them.
func Versions() ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		versions = append(versions, strings.TrimSuffix(e.Name(), ".sql"))
	}
	slices.Sort(versions)
	return versions, nil
}

func apply(ctx context.Context, db *sql.DB, version string) (bool, error) {
	body, err := migrationsFS.ReadFile("migrations/" + version + ".sql")
	if err != nil {
		return false, fmt.Errorf("read migration %s: %w", version, err)
	}

	ran := false
	err = pgxutil.WithPgxTx(ctx, db, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			if _, lockErr := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKey); lockErr != nil {
				return fmt.Errorf("acquire migration lock: %w", lockErr)
			}

			var exists bool
			if scanErr := tx.QueryRow(ctx,
				`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
			).Scan(&exists); scanErr != nil {
				return fmt.Errorf("check migration %s: %w", version, scanErr)
			}
			if exists {
				return nil
			}

			if _, execErr := tx.Exec(ctx, string(body)); execErr != nil {
				return fmt.Errorf("exec migration %s: %w", version, execErr)
			}
			if _, recErr := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); recErr != nil {
				return fmt.Errorf("record migration %s: %w", version, recErr)
			}
			ran = true
			return nil
		},
	})
	return ran, err
}
