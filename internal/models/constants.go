package models

type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
	// StatusCanceled is part of the stored model but no operation produces it yet.
	StatusCanceled BookingStatus = "CANCELED"
)

var validNext = map[BookingStatus]map[BookingStatus]bool{
	StatusWaiting:  {StatusApproved: true, StatusRejected: true},
	StatusApproved: {},
	StatusRejected: {},
	StatusCanceled: {},
}

// IsValid reports whether s is a known status.
func (s BookingStatus) IsValid() bool {
	_, ok := validNext[s]
	return ok
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	return validNext[s][next]
}

func (s BookingStatus) String() string {
	return string(s)
}

const (
	// DefaultListState состояние по умолчанию для списка заявок
	DefaultListState = "ALL"

	// DefaultRateLimitWindow окно ограничения частоты записи, в секундах
	DefaultRateLimitWindow = 60

	// DefaultRateLimitWrites количество операций записи в окне
	DefaultRateLimitWrites = 30

	// DefaultFailoverRetry пауза перед повторной попыткой основного хранилища, в секундах
	DefaultFailoverRetry = 60
)
