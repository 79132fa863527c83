package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shareit/internal/models"
)

const bookingColumns = `b.id, b.item_id, b.booker_id, b.start_at, b.end_at, b.status, b.created_at, b.updated_at, b.version`

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (item_id, booker_id, start_at, end_at, status, created_at, updated_at, version)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if booking.Status == "" {
		booking.Status = models.StatusWaiting
	}
	now := time.Now().UTC()
	id, err := db.insert(ctx, query,
		booking.ItemID,
		booking.BookerID,
		booking.Start.UTC(),
		booking.End.UTC(),
		booking.Status,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	booking.ID = id
	booking.Start = booking.Start.UTC()
	booking.End = booking.End.UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = ?`
	booking, err := scanBooking(db.queryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id=%d", ErrBookingNotFound, id)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// UpdateBookingStatusWithVersion applies the status only if the stored
// version still equals fromVersion, and bumps the version.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status models.BookingStatus) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := db.exec(ctx, query, status, time.Now().UTC(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) ListBookingsByBooker(ctx context.Context, bookerID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b
              WHERE b.booker_id = ? ORDER BY b.start_at DESC, b.id DESC`
	return db.listBookings(ctx, query, bookerID)
}

func (db *DB) ListBookingsByOwner(ctx context.Context, ownerID int64) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b
              JOIN items i ON i.id = b.item_id
              WHERE i.owner_id = ? ORDER BY b.start_at DESC, b.id DESC`
	return db.listBookings(ctx, query, ownerID)
}

// GetLastBooking returns the approved booking on the item with the latest
// start before now, or nil.
func (db *DB) GetLastBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b
              WHERE b.item_id = ? AND b.status = ? AND b.start_at < ?
              ORDER BY b.start_at DESC, b.id DESC LIMIT 1`
	return db.optionalBooking(ctx, query, itemID, models.StatusApproved, now.UTC())
}

// GetNextBooking returns the approved booking on the item with the earliest
// start after now, or nil.
func (db *DB) GetNextBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b
              WHERE b.item_id = ? AND b.status = ? AND b.start_at > ?
              ORDER BY b.start_at ASC, b.id ASC LIMIT 1`
	return db.optionalBooking(ctx, query, itemID, models.StatusApproved, now.UTC())
}

func (db *DB) HasCompletedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error) {
	query := `SELECT COUNT(*) FROM bookings
              WHERE booker_id = ? AND item_id = ? AND status = ? AND end_at < ?`
	var count int
	if err := db.queryRow(ctx, query, bookerID, itemID, models.StatusApproved, now.UTC()).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check completed bookings: %w", err)
	}
	return count > 0, nil
}

func (db *DB) optionalBooking(ctx context.Context, query string, args ...interface{}) (*models.Booking, error) {
	booking, err := scanBooking(db.queryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) listBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(&b.ID, &b.ItemID, &b.BookerID, &b.Start, &b.End, &b.Status, &b.CreatedAt, &b.UpdatedAt, &b.Version)
	if err != nil {
		return nil, err
	}
	if !b.Status.IsValid() {
		return nil, fmt.Errorf("booking %d has unknown status %q", b.ID, b.Status)
	}
	b.Start = utc(b.Start)
	b.End = utc(b.End)
	b.CreatedAt = utc(b.CreatedAt)
	b.UpdatedAt = utc(b.UpdatedAt)
	return &b, nil
}
