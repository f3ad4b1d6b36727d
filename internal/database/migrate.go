package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/rs/zerolog"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// migrator abstracts the two drivers' exec and query calls
type migrator struct {
	exec    func(ctx context.Context, query string, args ...any) error
	applied func(ctx context.Context, version string) (bool, error)
	log     zerolog.Logger
}

func (db *DB) Migrate(ctx context.Context, log zerolog.Logger) error {
	return migrator{
		log: log,
		exec: func(ctx context.Context, query string, args ...any) error {
			_, err := db.Pool.Exec(ctx, query, args...)
			return err
		},
		applied: func(ctx context.Context, version string) (bool, error) {
			var exists bool
			err := db.Pool.QueryRow(ctx,
				"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)",
				version,
			).Scan(&exists)
			return exists, err
		},
	}.run(ctx, "migrations/postgres", "INSERT INTO schema_migrations (version) VALUES ($1)")
}

func (m migrator) run(ctx context.Context, dir, record string) error {
	// Create migrations tracking table
	err := m.exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrationFiles []string
	for _, entry := range entries {
		if !entry.IsDir() {
			migrationFiles = append(migrationFiles, entry.Name())
		}
	}
	sort.Strings(migrationFiles)

	for _, filename := range migrationFiles {
		exists, err := m.applied(ctx, filename)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if exists {
			continue
		}

		content, err := migrationsFS.ReadFile(dir + "/" + filename)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", filename, err)
		}

		if err := m.exec(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", filename, err)
		}

		if err := m.exec(ctx, record, filename); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", filename, err)
		}

		m.log.Info().Str("version", filename).Msg("applied migration")
	}

	return nil
}
