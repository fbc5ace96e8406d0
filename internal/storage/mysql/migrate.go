package mysql

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies every embedded migration not yet listed in
// schema_migrations, in file name order. Statements in a file are split on
// ";" so the DSN does not need multiStatements.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	if _, err := s.db.ExecContext(ctx, createMigrationsTableSQL); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}
	var done []string
	if err := s.db.SelectContext(ctx, &done, appliedMigrationsSQL); err != nil {
		return 0, fmt.Errorf("read schema_migrations: %w", err)
	}
	applied := make(map[string]bool, len(done))
	for _, v := range done {
		applied[v] = true
	}

	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return 0, err
	}
	sort.Strings(names)

	n := 0
	for _, name := range names {
		version := strings.TrimSuffix(strings.TrimPrefix(name, "migrations/"), ".sql")
		if applied[version] {
			continue
		}
		body, err := migrationsFS.ReadFile(name)
		if err != nil {
			return n, err
		}
		for _, stmt := range splitStatements(string(body)) {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return n, fmt.Errorf("migration %s: %w", version, err)
			}
		}
		// DDL commits implicitly in MySQL, so the version is recorded afterwards.
		if _, err := s.db.ExecContext(ctx, recordMigrationSQL, version); err != nil {
			return n, fmt.Errorf("record %s: %w", version, err)
		}
		log.Info().Str("version", version).Msg("migration applied")
		n++
	}
	return n, nil
}

func splitStatements(body string) []string {
	var out []string
	for _, part := range strings.Split(body, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
