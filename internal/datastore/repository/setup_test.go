package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/fleetops/sysmgmt/internal/datastore/entities"
)

// setupTestDB creates an in-memory SQLite database for repository tests.
// Uses shared-cache mode with a single connection so all operations see the
// same in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_foreign_keys=ON"), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	require.NoError(t, err, "failed to open in-memory database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "failed to get sql.DB")
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&entities.Incident{},
		&entities.IncidentEvent{},
		&entities.RestaurantStatus{},
		&entities.PushSubscription{},
	)
	require.NoError(t, err, "failed to migrate tables")

	// shared-cache keeps the database alive across tests in this package;
	// start each test from empty tables.
	for _, table := range []string{"incidents", "incident_events", "restaurant_status", "push_subscriptions"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}
	return db
}
