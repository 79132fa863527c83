package database

import (
	"errors"
	"fmt"

	"shareit/internal/domain"
)

var (
	ErrBookingNotFound        = fmt.Errorf("booking %w", domain.ErrNotFound)
	ErrItemNotFound           = fmt.Errorf("item %w", domain.ErrNotFound)
	ErrUserNotFound           = fmt.Errorf("user %w", domain.ErrNotFound)
	ErrDuplicateEmail         = fmt.Errorf("%w: email already registered", domain.ErrConflict)
	ErrConcurrentModification = errors.New("concurrent modification")
)
