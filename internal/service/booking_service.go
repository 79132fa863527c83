package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// maxApprovalAttempts bounds version-conflict retries in SetApproval.
const maxApprovalAttempts = 3

type BookingService struct {
	bookings domain.BookingStore
	users    domain.UserDirectory
	items    domain.ItemDirectory
	clock    domain.Clock
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewBookingService(
	bookings domain.BookingStore,
	users domain.UserDirectory,
	items domain.ItemDirectory,
	clock domain.Clock,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *BookingService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &BookingService{
		bookings: bookings,
		users:    users,
		items:    items,
		clock:    clock,
		eventBus: eventBus,
		logger:   logger,
	}
}

// CreateBooking records a WAITING booking for requesterID on itemID.
// Overlapping bookings on the same item are not checked.
func (s *BookingService) CreateBooking(ctx context.Context, requesterID, itemID int64, start, end time.Time) (*models.Booking, error) {
	booking, err := s.createBooking(ctx, requesterID, itemID, start, end)
	if err != nil {
		metrics.IncBookingError("create", domain.Kind(err))
		return nil, err
	}

	metrics.IncBookingTransition(string(booking.Status))
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("item_id", itemID).
		Int64("booker_id", requesterID).
		Msg("booking created")
	return booking, nil
}

func (s *BookingService) createBooking(ctx context.Context, requesterID, itemID int64, start, end time.Time) (*models.Booking, error) {
	if err := s.requireUser(ctx, requesterID); err != nil {
		return nil, err
	}

	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start must precede end", domain.ErrInvalidArgument)
	}

	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, fmt.Errorf("%w: item not available for booking", domain.ErrInvalidState)
	}

	booking := &models.Booking{
		ItemID:   item.ID,
		BookerID: requesterID,
		Start:    start.UTC(),
		End:      end.UTC(),
		Status:   models.StatusWaiting,
	}
	if err := s.bookings.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingCreated, booking, item.OwnerID, requesterID)
	return booking, nil
}

// SetApproval moves a WAITING booking to APPROVED or REJECTED on behalf of the
// item owner. The status check runs before the ownership check.
func (s *BookingService) SetApproval(ctx context.Context, actorID, bookingID int64, approved bool) (*models.Booking, error) {
	booking, err := s.setApproval(ctx, actorID, bookingID, approved)
	if err != nil {
		metrics.IncBookingError("set_approval", domain.Kind(err))
		return nil, err
	}

	metrics.IncBookingTransition(string(booking.Status))
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("actor_id", actorID).
		Str("status", string(booking.Status)).
		Msg("booking decided")
	return booking, nil
}

func (s *BookingService) setApproval(ctx context.Context, actorID, bookingID int64, approved bool) (*models.Booking, error) {
	next := models.StatusRejected
	if approved {
		next = models.StatusApproved
	}

	for attempt := 1; ; attempt++ {
		booking, err := s.bookings.GetBooking(ctx, bookingID)
		if err != nil {
			return nil, err
		}

		if !booking.Status.CanTransitionTo(next) {
			return nil, fmt.Errorf("%w: status can only be changed from %s, booking %d is %s",
				domain.ErrInvalidState, models.StatusWaiting, booking.ID, booking.Status)
		}

		item, err := s.items.GetItem(ctx, booking.ItemID)
		if err != nil {
			return nil, err
		}
		if item.OwnerID != actorID {
			return nil, fmt.Errorf("%w: only the item owner may approve/reject", domain.ErrForbidden)
		}

		err = s.bookings.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, next)
		if errors.Is(err, database.ErrConcurrentModification) && attempt < maxApprovalAttempts {
			s.logger.Debug().Int64("booking_id", booking.ID).Int("attempt", attempt).Msg("booking changed concurrently, re-reading")
			continue
		}
		if errors.Is(err, database.ErrConcurrentModification) {
			return nil, fmt.Errorf("%w: booking %d was modified concurrently", domain.ErrInvalidState, booking.ID)
		}
		if err != nil {
			return nil, err
		}

		booking.Status = next
		booking.Version++
		booking.UpdatedAt = s.clock.Now()

		eventType := events.EventBookingRejected
		if approved {
			eventType = events.EventBookingApproved
		}
		s.publishEvent(eventType, booking, item.OwnerID, actorID)
		return booking, nil
	}
}

// GetBooking returns the booking if actorID is its booker or the item owner.
func (s *BookingService) GetBooking(ctx context.Context, actorID, bookingID int64) (*models.Booking, error) {
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.BookerID == actorID {
		return booking, nil
	}

	item, err := s.items.GetItem(ctx, booking.ItemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != actorID {
		return nil, fmt.Errorf("%w: only the owner of the item or the requesting booker may view this booking", domain.ErrForbidden)
	}
	return booking, nil
}

// ListByRequester lists bookings made by userID in the given state, newest start first.
func (s *BookingService) ListByRequester(ctx context.Context, userID int64, state string) ([]*models.Booking, error) {
	return s.list(ctx, userID, state, s.bookings.ListBookingsByBooker)
}

// ListByOwner lists bookings on items owned by userID in the given state, newest start first.
func (s *BookingService) ListByOwner(ctx context.Context, userID int64, state string) ([]*models.Booking, error) {
	return s.list(ctx, userID, state, s.bookings.ListBookingsByOwner)
}

func (s *BookingService) list(
	ctx context.Context,
	userID int64,
	raw string,
	fetch func(context.Context, int64) ([]*models.Booking, error),
) ([]*models.Booking, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	state, err := parseState(raw)
	if err != nil {
		return nil, err
	}

	bookings, err := fetch(ctx, userID)
	if err != nil {
		return nil, err
	}
	return filterByState(bookings, state, s.clock.Now()), nil
}

func (s *BookingService) LastBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	return s.bookings.GetLastBooking(ctx, itemID, now)
}

func (s *BookingService) NextBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	return s.bookings.GetNextBooking(ctx, itemID, now)
}

// ItemSummary returns the item; the owner additionally sees its last and
// next approved bookings.
func (s *BookingService) ItemSummary(ctx context.Context, actorID, itemID int64) (*models.ItemSummary, error) {
	if err := s.requireUser(ctx, actorID); err != nil {
		return nil, err
	}

	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	summary := &models.ItemSummary{Item: item}
	if item.OwnerID != actorID {
		return summary, nil
	}

	now := s.clock.Now()
	if summary.LastBooking, err = s.LastBooking(ctx, itemID, now); err != nil {
		return nil, err
	}
	if summary.NextBooking, err = s.NextBooking(ctx, itemID, now); err != nil {
		return nil, err
	}
	return summary, nil
}

// HasCompletedBooking reports whether userID has an approved booking on
// itemID that already ended.
func (s *BookingService) HasCompletedBooking(ctx context.Context, userID, itemID int64) (bool, error) {
	return s.bookings.HasCompletedBooking(ctx, userID, itemID, s.clock.Now())
}

func (s *BookingService) requireUser(ctx context.Context, userID int64) error {
	ok, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: user %d", domain.ErrNotFound, userID)
	}
	return nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, ownerID, actorID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		ItemID:    booking.ItemID,
		BookerID:  booking.BookerID,
		OwnerID:   ownerID,
		Status:    string(booking.Status),
		Start:     booking.Start,
		End:       booking.End,
		ActorID:   actorID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
