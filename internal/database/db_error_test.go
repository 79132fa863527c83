package database

import (
	"context"
	"io"
	"testing"
	"time"

	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_ErrorPaths(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	db.Close() // Close the DB to trigger errors

	ctx := context.Background()
	now := time.Now()

	t.Run("CreateBooking_Error", func(t *testing.T) {
		assert.Error(t, db.CreateBooking(ctx, &models.Booking{}))
	})

	t.Run("GetBooking_Error", func(t *testing.T) {
		_, err := db.GetBooking(ctx, 1)
		assert.Error(t, err)
	})

	t.Run("UpdateBookingStatusWithVersion_Error", func(t *testing.T) {
		err := db.UpdateBookingStatusWithVersion(ctx, 1, 1, models.StatusApproved)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrConcurrentModification)
	})

	t.Run("ListBookings_Error", func(t *testing.T) {
		_, err := db.ListBookingsByBooker(ctx, 1)
		assert.Error(t, err)
		_, err = db.ListBookingsByOwner(ctx, 1)
		assert.Error(t, err)
	})

	t.Run("LastNext_Error", func(t *testing.T) {
		_, err := db.GetLastBooking(ctx, 1, now)
		assert.Error(t, err)
		_, err = db.GetNextBooking(ctx, 1, now)
		assert.Error(t, err)
	})

	t.Run("HasCompletedBooking_Error", func(t *testing.T) {
		_, err := db.HasCompletedBooking(ctx, 1, 1, now)
		assert.Error(t, err)
	})

	t.Run("Users_Error", func(t *testing.T) {
		assert.Error(t, db.CreateUser(ctx, &models.User{Name: "x", Email: "x@example.com"}))
		_, err := db.GetUserByID(ctx, 1)
		assert.Error(t, err)
		_, err = db.GetAllUsers(ctx)
		assert.Error(t, err)
	})

	t.Run("Items_Error", func(t *testing.T) {
		assert.Error(t, db.CreateItem(ctx, &models.Item{OwnerID: 1, Name: "x"}))
		_, err := db.GetItemByID(ctx, 1)
		assert.Error(t, err)
		_, err = db.GetItemsByOwner(ctx, 1)
		assert.Error(t, err)
		assert.Error(t, db.UpdateItem(ctx, &models.Item{ID: 1}))
	})
}
