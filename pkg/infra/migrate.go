package infra

import (
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"gorm.io/gorm"

	postgres_wrapper "github.com/tradeloop/marketmaker-dev/pkg/infra/postgres"
)

// Migrate brings the journal schema from its current version to the latest.
// A dirty version left by an interrupted run is forced back one step first.
func Migrate(source, connStr string) error {
	zap.S().Info("migrating journal schema")

	mg, err := migrate.New(source, connStr)
	if err != nil {
		return err
	}
	defer mg.Close()

	version, dirty, err := mg.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return err
	}
	if dirty {
		if err := mg.Force(int(version) - 1); err != nil {
			return err
		}
	}

	if err := mg.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	zap.S().Info("journal schema up to date")
	return nil
}

// ConnectAndMigrate backoff-connects to the journal database and applies the
// schema, so writers never race an empty table.
func ConnectAndMigrate(cfg *postgres_wrapper.PostgresConfig, source string) (*gorm.DB, error) {
	db := postgres_wrapper.InitPostgresWithBackoff(cfg)
	if err := Migrate(source, cfg.MigrationConnURL); err != nil {
		return nil, err
	}
	return db, nil
}
