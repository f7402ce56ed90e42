package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"salesops_backend/platform/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies pending schema migrations from migrationsDir. An
// empty directory disables migrations for deployments that manage the schema
// externally.
func RunMigrations(_ context.Context, cfg config.DatabaseConfig, migrationsDir string) error {
	dir := strings.TrimSpace(migrationsDir)
	if dir == "" {
		return nil
	}

	m, err := migrate.New("file://"+dir, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("open migration source %q: %w", dir, err)
	}
	defer m.Close()

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		return nil
	case err != nil:
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
