package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRestaurants = []string{"R1", "R2", "R3", "R4", "R5"}

func seedStatuses(t *testing.T, repo StatusRepository) {
	t.Helper()
	created, err := repo.Seed(t.Context(), testRestaurants)
	require.NoError(t, err)
	require.Equal(t, len(testRestaurants), created)
}

func TestStatusRepository_SeedIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStatusRepository(db)
	ctx := t.Context()

	seedStatuses(t, repo)

	// Re-seeding must not duplicate or reset rows.
	created, err := repo.Seed(ctx, testRestaurants)
	require.NoError(t, err)
	assert.Zero(t, created)

	statuses, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, statuses, len(testRestaurants))
}

func TestStatusRepository_ListOrdered(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStatusRepository(db)

	seedStatuses(t, repo)

	statuses, err := repo.List(t.Context())
	require.NoError(t, err)
	require.Len(t, statuses, 5)
	for i, s := range statuses {
		assert.Equal(t, testRestaurants[i], s.Restaurant)
		assert.Nil(t, s.OpenIncidentID)
		assert.Nil(t, s.OpenSeverity)
	}
}

func TestStatusRepository_SetOpen(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStatusRepository(db)
	ctx := t.Context()

	seedStatuses(t, repo)

	id := uuid.NewString()
	require.NoError(t, repo.SetOpen(ctx, "R3", id, "CRITICAL", time.Now()))

	statuses, err := repo.List(ctx)
	require.NoError(t, err)
	for _, s := range statuses {
		if s.Restaurant != "R3" {
			assert.Nil(t, s.OpenIncidentID)
			continue
		}
		require.NotNil(t, s.OpenIncidentID)
		assert.Equal(t, id, *s.OpenIncidentID)
		require.NotNil(t, s.OpenSeverity)
		assert.Equal(t, "CRITICAL", *s.OpenSeverity)
	}
}

func TestStatusRepository_SetOpenUnknownRestaurant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStatusRepository(db)

	seedStatuses(t, repo)

	err := repo.SetOpen(t.Context(), "R9", uuid.NewString(), "WARN", time.Now())
	require.Error(t, err)
}

func TestStatusRepository_ClearIfOpenGuard(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStatusRepository(db)
	ctx := t.Context()

	seedStatuses(t, repo)

	id := uuid.NewString()
	require.NoError(t, repo.SetOpen(ctx, "R2", id, "WARN", time.Now()))

	// Clearing with the wrong id must not touch the row.
	cleared, err := repo.ClearIfOpen(ctx, "R2", uuid.NewString(), time.Now())
	require.NoError(t, err)
	assert.False(t, cleared)

	statuses, err := repo.List(ctx)
	require.NoError(t, err)
	for _, s := range statuses {
		if s.Restaurant == "R2" {
			require.NotNil(t, s.OpenIncidentID)
			assert.Equal(t, id, *s.OpenIncidentID)
		}
	}

	cleared, err = repo.ClearIfOpen(ctx, "R2", id, time.Now())
	require.NoError(t, err)
	assert.True(t, cleared)

	statuses, err = repo.List(ctx)
	require.NoError(t, err)
	for _, s := range statuses {
		if s.Restaurant == "R2" {
			assert.Nil(t, s.OpenIncidentID)
			assert.Nil(t, s.OpenSeverity)
		}
	}
}

// A fix for an old incident must never clobber the projection once a newer
// incident has taken it.
func TestStatusRepository_StaleFixLeavesNewerIncident(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStatusRepository(db)
	ctx := t.Context()

	seedStatuses(t, repo)

	older := uuid.NewString()
	newer := uuid.NewString()
	require.NoError(t, repo.SetOpen(ctx, "R1", older, "WARN", time.Now()))
	require.NoError(t, repo.SetOpen(ctx, "R1", newer, "CRITICAL", time.Now()))

	cleared, err := repo.ClearIfOpen(ctx, "R1", older, time.Now())
	require.NoError(t, err)
	assert.False(t, cleared)

	statuses, err := repo.List(ctx)
	require.NoError(t, err)
	for _, s := range statuses {
		if s.Restaurant == "R1" {
			require.NotNil(t, s.OpenIncidentID)
			assert.Equal(t, newer, *s.OpenIncidentID)
		}
	}
}
