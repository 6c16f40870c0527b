package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tidemarkhq/tidemark/internal/infrastructure/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migration is one versioned schema change, loaded from the embedded
// NNNNNN_description.up.sql files. Down scripts exist alongside but are
// only run by hand.
type migration struct {
	version     string
	description string
	upSQL       string
}

// Migrator applies pending migrations at startup, tracking them in a
// schema_migrations table inside the target schema.
type Migrator struct {
	pool   *pgxpool.Pool
	schema string
	logger *logging.Logger
}

func NewMigrator(conn *Connection, logger *logging.Logger) *Migrator {
	return &Migrator{
		pool:   conn.Pool(),
		schema: conn.Schema(),
		logger: logger.WithComponent("migrator"),
	}
}

// Run applies every migration that has not been recorded yet, in
// version order, each in its own transaction.
func (m *Migrator) Run(ctx context.Context) error {
	m.logger.Info("starting database migrations")

	pending, err := m.load()
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	applied := 0
	for _, mig := range pending {
		ok, err := m.apply(ctx, mig)
		if err != nil {
			m.logger.MigrationFailed(mig.version, mig.description, err)
			return fmt.Errorf("applying migration %s: %w", mig.version, err)
		}
		if ok {
			applied++
		}
	}

	m.logger.MigrationCompleted(applied)
	return nil
}

// load reads the embedded up scripts and substitutes the configured
// schema for the {{schema}} placeholder the files are written with.
func (m *Migrator) load() ([]migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var migs []migration
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		version, description, ok := strings.Cut(strings.TrimSuffix(name, ".up.sql"), "_")
		if !ok {
			return nil, fmt.Errorf("malformed migration filename %q", name)
		}

		content, err := fs.ReadFile(migrationsFS, "migrations/"+name)
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", name, err)
		}

		migs = append(migs, migration{
			version:     version,
			description: description,
			upSQL:       strings.ReplaceAll(string(content), "{{schema}}", m.schema),
		})
	}

	sort.Slice(migs, func(i, j int) bool { return migs[i].version < migs[j].version })
	return migs, nil
}

// apply runs one migration unless schema_migrations already records its
// version. Returns true when the migration was executed.
func (m *Migrator) apply(ctx context.Context, mig migration) (bool, error) {
	var recorded bool
	err := m.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s.schema_migrations WHERE version = $1)`, m.schema),
		mig.version,
	).Scan(&recorded)

	// the bootstrap migration creates schema_migrations itself, so a
	// missing table is expected only for it
	if err != nil && mig.version != "000001" {
		return false, fmt.Errorf("checking migration status: %w", err)
	}
	if recorded {
		m.logger.MigrationSkipped(mig.version, mig.description)
		return false, nil
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, mig.upSQL); err != nil {
		return false, fmt.Errorf("executing migration: %w", err)
	}
	if _, err := tx.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s.schema_migrations (version, description) VALUES ($1, $2)`, m.schema),
		mig.version, mig.description,
	); err != nil {
		return false, fmt.Errorf("recording migration: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing transaction: %w", err)
	}

	m.logger.MigrationApplied(mig.version, mig.description)
	return true, nil
}

// AppliedVersions lists recorded migration versions in order.
func (m *Migrator) AppliedVersions(ctx context.Context) ([]string, error) {
	rows, err := m.pool.Query(ctx,
		fmt.Sprintf(`SELECT version FROM %s.schema_migrations ORDER BY version`, m.schema),
	)
	if err != nil {
		return nil, fmt.Errorf("querying migrations: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}
