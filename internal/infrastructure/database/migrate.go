package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	// Registers the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sangkips/billing-api/internal/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate brings the schema up to date. With cfg.Migrate set on PostgreSQL
// the versioned SQL files under cfg.MigrationsPath are applied; every other
// setup falls back to AutoMigrate.
func Migrate(db *gorm.DB, cfg *config.DatabaseConfig) error {
	if cfg.Migrate && cfg.Driver != DriverSQLite {
		return runSQLMigrations(cfg)
	}
	return AutoMigrate(db)
}

// runSQLMigrations executes migrations using the golang-migrate file source.
func runSQLMigrations(cfg *config.DatabaseConfig) error {
	m, err := migrate.New("file://"+cfg.MigrationsPath, cfg.URL())
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	zap.L().Info("sql migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
