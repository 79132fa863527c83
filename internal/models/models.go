package models

import (
	"fmt"
	"strings"
)

// BookingState is a virtual classification of bookings computed per query
// from status, start and end relative to the current time. It is never stored.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

// BookingStates lists every state in declaration order.
var BookingStates = []BookingState{
	StateAll,
	StateCurrent,
	StatePast,
	StateFuture,
	StateWaiting,
	StateRejected,
}

// ParseBookingState matches raw against the known states ignoring case.
func ParseBookingState(raw string) (BookingState, bool) {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	for _, s := range BookingStates {
		if string(s) == upper {
			return s, true
		}
	}
	return "", false
}

func (s BookingState) String() string {
	return string(s)
}

// Page is an offset/limit window over a listing. Size 0 means no limit.
type Page struct {
	From int
	Size int
}

func (p Page) Validate() error {
	if p.From < 0 {
		return fmt.Errorf("from must not be negative: %d", p.From)
	}
	if p.Size < 0 {
		return fmt.Errorf("size must not be negative: %d", p.Size)
	}
	return nil
}

// Apply returns the window of bookings selected by p.
func (p Page) Apply(bookings []*Booking) []*Booking {
	if p.From >= len(bookings) {
		return []*Booking{}
	}
	out := bookings[p.From:]
	if p.Size > 0 && p.Size < len(out) {
		out = out[:p.Size]
	}
	return out
}
