package models

import "time"

type Item struct {
	ID          int64     `yaml:"id" json:"id"`
	OwnerID     int64     `yaml:"owner_id" json:"owner_id"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Available   bool      `yaml:"available" json:"available"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updated_at"`
}

// ItemSummary is the item detail view. LastBooking and NextBooking are only
// filled in for the item owner.
type ItemSummary struct {
	Item        *Item    `json:"item"`
	LastBooking *Booking `json:"last_booking,omitempty"`
	NextBooking *Booking `json:"next_booking,omitempty"`
}
