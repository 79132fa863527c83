package database

import (
	"context"
	"errors"
	"testing"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCRUD(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	user := &models.User{Name: "Test User", Email: "test@example.com"}
	require.NoError(t, db.CreateUser(ctx, user))
	assert.NotZero(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	found, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test User", found.Name)
	assert.Equal(t, "test@example.com", found.Email)

	other := &models.User{Name: "Other", Email: "other@example.com"}
	require.NoError(t, db.CreateUser(ctx, other))

	all, err := db.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, user.ID, all[0].ID)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.CreateUser(ctx, &models.User{Name: "A", Email: "same@example.com"}))

	err := db.CreateUser(ctx, &models.User{Name: "B", Email: "same@example.com"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.True(t, errors.Is(err, ErrDuplicateEmail))
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetUserByID(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUserNotFound))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
