package service

import (
	"context"
	"errors"
	"testing"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserService_CreateUser(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(mockUserStore)
		s := NewUserService(repo, &logger)
		repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Name == "Ann" && u.Email == "ann@example.com"
		})).Return(nil)

		err := s.CreateUser(ctx, &models.User{Name: " Ann ", Email: "ann@example.com "})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("Validation", func(t *testing.T) {
		repo := new(mockUserStore)
		s := NewUserService(repo, &logger)

		assert.ErrorIs(t, s.CreateUser(ctx, &models.User{Name: "", Email: "a@example.com"}), domain.ErrInvalidArgument)
		assert.ErrorIs(t, s.CreateUser(ctx, &models.User{Name: "A", Email: "not-an-email"}), domain.ErrInvalidArgument)
		repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		repo := new(mockUserStore)
		s := NewUserService(repo, &logger)
		repo.On("CreateUser", mock.Anything, mock.Anything).Return(database.ErrDuplicateEmail)

		err := s.CreateUser(ctx, &models.User{Name: "A", Email: "a@example.com"})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestUserService_UserExists(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	repo := new(mockUserStore)
	s := NewUserService(repo, &logger)

	repo.On("GetUserByID", mock.Anything, int64(1)).Return(&models.User{ID: 1}, nil)
	repo.On("GetUserByID", mock.Anything, int64(2)).Return(nil, database.ErrUserNotFound)
	repo.On("GetUserByID", mock.Anything, int64(3)).Return(nil, errors.New("db down"))

	ok, err := s.UserExists(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UserExists(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.UserExists(ctx, 3)
	assert.Error(t, err)

	u, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
}
