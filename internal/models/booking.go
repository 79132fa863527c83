package models

import "time"

type Booking struct {
	ID        int64         `json:"id"`
	ItemID    int64         `json:"item_id"`
	BookerID  int64         `json:"booker_id"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Version   int64         `json:"version"`
}
