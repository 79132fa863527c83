package service

import (
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

type statePredicate func(b *models.Booking, now time.Time) bool

// statePredicates classifies a booking into a listing bucket relative to now.
// CURRENT is inclusive at both ends.
var statePredicates = map[models.BookingState]statePredicate{
	models.StateAll: func(*models.Booking, time.Time) bool {
		return true
	},
	models.StateCurrent: func(b *models.Booking, now time.Time) bool {
		return !b.Start.After(now) && !b.End.Before(now)
	},
	models.StatePast: func(b *models.Booking, now time.Time) bool {
		return b.End.Before(now)
	},
	models.StateFuture: func(b *models.Booking, now time.Time) bool {
		return b.Start.After(now)
	},
	models.StateWaiting: func(b *models.Booking, now time.Time) bool {
		return b.Status == models.StatusWaiting && b.Start.After(now)
	},
	models.StateRejected: func(b *models.Booking, _ time.Time) bool {
		return b.Status == models.StatusRejected
	},
}

func parseState(raw string) (models.BookingState, error) {
	state, ok := models.ParseBookingState(raw)
	if !ok {
		return "", fmt.Errorf("%w: unknown booking state: %s", domain.ErrInvalidArgument, raw)
	}
	return state, nil
}

// filterByState keeps the bookings in state, preserving order.
func filterByState(bookings []*models.Booking, state models.BookingState, now time.Time) []*models.Booking {
	out := make([]*models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if inState(b, state, now) {
			out = append(out, b)
		}
	}
	return out
}

// inState reports whether b falls into state at now. Unknown states match
// nothing.
func inState(b *models.Booking, state models.BookingState, now time.Time) bool {
	match, ok := statePredicates[state]
	return ok && match(b, now)
}
