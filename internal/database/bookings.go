package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shareit/internal/models"
)

const bookingSelect = `SELECT b.id, b.item_id, b.booker_id, b.start_time, b.end_time,
                              b.status, b.created_at, b.updated_at, b.version,
                              i.name, i.owner_id, u.name
                       FROM bookings b
                       JOIN items i ON i.id = b.item_id
                       JOIN users u ON u.id = b.booker_id`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	b := &models.Booking{}
	err := row.Scan(
		&b.ID, &b.ItemID, &b.BookerID, &b.Start, &b.End,
		&b.Status, &b.CreatedAt, &b.UpdatedAt, &b.Version,
		&b.ItemName, &b.ItemOwnerID, &b.BookerName,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (item_id, booker_id, start_time, end_time, status, created_at, updated_at, version)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		booking.ItemID, booking.BookerID, booking.Start, booking.End,
		booking.Status, now, now, 1,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := scanBooking(db.QueryRowContext(ctx, bookingSelect+` WHERE b.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: booking %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// UpdateBookingStatusWithVersion finalizes a waiting booking. The WAITING
// guard plus the version check make the decision a single atomic
// read-modify-write: at most one of two concurrent callers wins.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status string) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ? AND status = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, fromVersion, models.StatusWaiting)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// ListByBooker returns bookings placed by the user, newest start first.
// The page window keeps the page-multiplier offset semantics, see Page.
func (db *DB) ListByBooker(ctx context.Context, bookerID int64, state BookingState, page Page, now time.Time) ([]*models.Booking, error) {
	return db.listBookings(ctx, "b.booker_id = ?", bookerID, state, page, now)
}

// ListByOwner returns bookings on items owned by the user, newest start first.
func (db *DB) ListByOwner(ctx context.Context, ownerID int64, state BookingState, page Page, now time.Time) ([]*models.Booking, error) {
	return db.listBookings(ctx, "i.owner_id = ?", ownerID, state, page, now)
}

func (db *DB) listBookings(ctx context.Context, subject string, subjectID int64, state BookingState, page Page, now time.Time) ([]*models.Booking, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	query := bookingSelect + ` WHERE ` + subject
	args := []any{subjectID}

	if cond, condArgs := state.where(now); cond != "" {
		query += ` AND ` + cond
		args = append(args, condArgs...)
	}

	query += ` ORDER BY b.start_time DESC, b.id DESC LIMIT ? OFFSET ?`
	args = append(args, page.Size, page.offset())

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}
	return bookings, nil
}

// FindLastBooking returns the approved booking on the item with the greatest
// end strictly before now, or nil when there is none.
func (db *DB) FindLastBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	query := bookingSelect + ` WHERE b.item_id = ? AND b.status = ? AND b.end_time < ?
                               ORDER BY b.end_time DESC LIMIT 1`
	return db.findOneBooking(ctx, query, itemID, models.StatusApproved, now)
}

// FindNextBooking returns the approved booking on the item with the smallest
// end at or after now, or nil when there is none.
func (db *DB) FindNextBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	query := bookingSelect + ` WHERE b.item_id = ? AND b.status = ? AND b.end_time >= ?
                               ORDER BY b.end_time ASC LIMIT 1`
	return db.findOneBooking(ctx, query, itemID, models.StatusApproved, now)
}

func (db *DB) findOneBooking(ctx context.Context, query string, args ...any) (*models.Booking, error) {
	booking, err := scanBooking(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return booking, nil
}

// ListApprovedByBookerAndItem feeds the comment eligibility check.
func (db *DB) ListApprovedByBookerAndItem(ctx context.Context, bookerID, itemID int64) ([]*models.Booking, error) {
	query := bookingSelect + ` WHERE b.booker_id = ? AND b.item_id = ? AND b.status = ?
                               ORDER BY b.end_time`
	rows, err := db.QueryContext(ctx, query, bookerID, itemID, models.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}
	return bookings, nil
}

// GetBookingsByDateRange returns bookings overlapping the period, for the
// schedule export and the sheets mirror.
func (db *DB) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	query := bookingSelect + ` WHERE b.start_time < ? AND b.end_time > ?
                               ORDER BY b.start_time, b.id`
	rows, err := db.QueryContext(ctx, query, end, start)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date range: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}
	return bookings, nil
}
