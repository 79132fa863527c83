package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo   domain.UserStore
	logger *zerolog.Logger
}

func NewUserService(repo domain.UserStore, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

func (s *UserService) CreateUser(ctx context.Context, user *models.User) error {
	user.Name = strings.TrimSpace(user.Name)
	user.Email = strings.TrimSpace(user.Email)

	if user.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidArgument)
	}
	if _, err := mail.ParseAddress(user.Email); err != nil {
		return fmt.Errorf("%w: invalid email %q", domain.ErrInvalidArgument, user.Email)
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", user.ID).Msg("user created")
	return nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *UserService) UserExists(ctx context.Context, id int64) (bool, error) {
	_, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
