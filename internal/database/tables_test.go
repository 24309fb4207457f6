package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tavolo/internal/domain"
	"tavolo/internal/models"
)

func testTable(restaurantID string, number, seats int64) *models.Table {
	return &models.Table{
		ID:           fmt.Sprintf("table-%s-%d", restaurantID, number),
		RestaurantID: restaurantID,
		TableNumber:  number,
		Seats:        seats,
		IsAvailable:  true,
		TimeSlots: []models.TimeSlot{
			{StartTime: "12:00", EndTime: "15:00"},
			{StartTime: "18:00", EndTime: "22:00"},
		},
	}
}

func TestCreateAndGetTable(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	table := testTable("rest-1", 1, 4)
	require.NoError(t, db.CreateTable(ctx, table))
	assert.Equal(t, int64(1), table.Version)

	got, err := db.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, table.TableNumber, got.TableNumber)
	assert.Equal(t, table.Seats, got.Seats)
	assert.Equal(t, table.TimeSlots, got.TimeSlots)
	assert.True(t, got.IsAvailable)
}

func TestCreateTable_DuplicateNumber(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, db.CreateTable(ctx, testTable("rest-1", 1, 4)))

	dup := testTable("rest-1", 1, 6)
	dup.ID = "other-id"
	err := db.CreateTable(ctx, dup)
	assert.ErrorIs(t, err, domain.ErrDuplicateTableNumber)

	// Same number in another restaurant is fine.
	other := testTable("rest-2", 1, 4)
	assert.NoError(t, db.CreateTable(ctx, other))
}

func TestGetTablesByRestaurant_Ordering(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, db.CreateTable(ctx, testTable("rest-1", 3, 2)))
	require.NoError(t, db.CreateTable(ctx, testTable("rest-1", 1, 4)))
	require.NoError(t, db.CreateTable(ctx, testTable("rest-1", 2, 6)))
	require.NoError(t, db.CreateTable(ctx, testTable("rest-2", 1, 8)))

	tables, err := db.GetTablesByRestaurant(ctx, "rest-1")
	require.NoError(t, err)
	require.Len(t, tables, 3)
	assert.Equal(t, int64(1), tables[0].TableNumber)
	assert.Equal(t, int64(2), tables[1].TableNumber)
	assert.Equal(t, int64(3), tables[2].TableNumber)
}

func TestUpdateTable_VersionConflict(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	table := testTable("rest-1", 1, 4)
	require.NoError(t, db.CreateTable(ctx, table))

	table.Seats = 6
	require.NoError(t, db.UpdateTable(ctx, table))
	assert.Equal(t, int64(2), table.Version)

	stale := testTable("rest-1", 1, 8)
	stale.ID = table.ID
	stale.Version = 1
	err := db.UpdateTable(ctx, stale)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestUpdateTable_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	table := testTable("rest-1", 1, 4)
	table.Version = 1
	err := db.UpdateTable(context.Background(), table)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteTable(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	table := testTable("rest-1", 1, 4)
	require.NoError(t, db.CreateTable(ctx, table))
	require.NoError(t, db.DeleteTable(ctx, table.ID))

	_, err := db.GetTable(ctx, table.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = db.DeleteTable(ctx, table.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReserveAndReleaseDate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	table := testTable("rest-1", 1, 4)
	require.NoError(t, db.CreateTable(ctx, table))

	require.NoError(t, db.ReserveDate(ctx, table.ID, "2026-09-10"))

	err := db.ReserveDate(ctx, table.ID, "2026-09-10")
	assert.ErrorIs(t, err, domain.ErrTableNoLongerAvailable)

	// A different date is independent.
	require.NoError(t, db.ReserveDate(ctx, table.ID, "2026-09-11"))

	require.NoError(t, db.ReleaseDate(ctx, table.ID, "2026-09-10"))
	require.NoError(t, db.ReserveDate(ctx, table.ID, "2026-09-10"))

	got, err := db.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"2026-09-10", "2026-09-11"}, got.UnavailableDates)
}

func TestReleaseDate_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	table := testTable("rest-1", 1, 4)
	require.NoError(t, db.CreateTable(ctx, table))

	// Date never held.
	assert.NoError(t, db.ReleaseDate(ctx, table.ID, "2026-09-10"))

	// Table already deleted.
	require.NoError(t, db.DeleteTable(ctx, table.ID))
	assert.NoError(t, db.ReleaseDate(ctx, table.ID, "2026-09-10"))
}

func TestReserveDate_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := db.ReserveDate(context.Background(), "missing", "2026-09-10")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
