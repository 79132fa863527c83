package domain

import (
	"context"
	"time"

	"shareit/internal/models"
)

// BookingStore persists bookings. Lookups of a single record return an error
// wrapping ErrNotFound when nothing matches; the last/next lookups return a
// nil booking instead.
type BookingStore interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status models.BookingStatus) error
	ListBookingsByBooker(ctx context.Context, bookerID int64) ([]*models.Booking, error)
	ListBookingsByOwner(ctx context.Context, ownerID int64) ([]*models.Booking, error)
	GetLastBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	GetNextBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	HasCompletedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type ItemStore interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	GetItemsByOwner(ctx context.Context, ownerID int64) ([]*models.Item, error)
}

// Repository is the full persistence surface backed by one database.
type Repository interface {
	BookingStore
	UserStore
	ItemStore
}

type UserDirectory interface {
	UserExists(ctx context.Context, id int64) (bool, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

type ItemDirectory interface {
	GetItem(ctx context.Context, id int64) (*models.Item, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// RateLimitRepository counts actions per actor inside a sliding window.
type RateLimitRepository interface {
	CheckRateLimit(ctx context.Context, actorID int64, limit int, window time.Duration) (bool, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, requesterID, itemID int64, start, end time.Time) (*models.Booking, error)
	SetApproval(ctx context.Context, actorID, bookingID int64, approved bool) (*models.Booking, error)
	GetBooking(ctx context.Context, actorID, bookingID int64) (*models.Booking, error)
	ListByRequester(ctx context.Context, userID int64, state string) ([]*models.Booking, error)
	ListByOwner(ctx context.Context, userID int64, state string) ([]*models.Booking, error)
	LastBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	NextBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	ItemSummary(ctx context.Context, actorID, itemID int64) (*models.ItemSummary, error)
	HasCompletedBooking(ctx context.Context, userID, itemID int64) (bool, error)
}

type UserService interface {
	UserDirectory
	CreateUser(ctx context.Context, user *models.User) error
}

type ItemService interface {
	ItemDirectory
	CreateItem(ctx context.Context, item *models.Item) error
	SetItemAvailable(ctx context.Context, ownerID, itemID int64, available bool) (*models.Item, error)
	GetItemsByOwner(ctx context.Context, ownerID int64) ([]*models.Item, error)
}
