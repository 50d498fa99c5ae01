// Package datastore opens the durable store and owns schema migration and
// projection seeding.
package datastore

import (
	"context"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/fleetops/sysmgmt/internal/conf"
	"github.com/fleetops/sysmgmt/internal/datastore/entities"
	"github.com/fleetops/sysmgmt/internal/datastore/repository"
	"github.com/fleetops/sysmgmt/internal/errors"
	"github.com/fleetops/sysmgmt/internal/incident"
	"github.com/fleetops/sysmgmt/internal/logger"
)

// Manager wraps the gorm handle and hands out repository implementations.
type Manager struct {
	db  *gorm.DB
	log logger.Logger
}

// Open connects to the configured database, migrates the schema, and seeds
// the restaurant status projection rows.
func Open(ctx context.Context, cfg conf.DatabaseConfig, log logger.Logger) (*Manager, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, errors.WithCode(errors.CategoryConfig, "config-database-driver-unknown",
			fmt.Errorf("unsupported database driver %q", cfg.Driver))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	if err != nil {
		return nil, errors.WithCode(errors.CategoryStore, "store-open-failed", err)
	}

	m := &Manager{db: db, log: log}
	if err := m.migrate(); err != nil {
		return nil, err
	}
	if err := m.seedStatuses(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// DB exposes the underlying gorm handle for repository construction.
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Close releases the underlying connection pool.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (m *Manager) migrate() error {
	err := m.db.AutoMigrate(
		&entities.Incident{},
		&entities.IncidentEvent{},
		&entities.RestaurantStatus{},
		&entities.PushSubscription{},
	)
	if err != nil {
		return errors.WithCode(errors.CategoryStore, "store-migrate-failed", err)
	}
	return nil
}

// seedStatuses ensures one projection row exists per fixed restaurant node.
// Existing rows are left untouched so open-incident state survives restarts.
func (m *Manager) seedStatuses(ctx context.Context) error {
	repo := repository.NewStatusRepository(m.db)
	created, err := repo.Seed(ctx, incident.Restaurants())
	if err != nil {
		return errors.WithCode(errors.CategoryStore, "store-seed-failed", err)
	}
	if created > 0 {
		m.log.Info("seeded restaurant status rows", logger.Int("created", created))
	}
	return nil
}
