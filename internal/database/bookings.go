package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"tavolo/internal/domain"
	"tavolo/internal/models"
)

const bookingColumns = `id, restaurant_id, customer_id, customer_name, table_id,
    table_number, table_seats, date_time, party_size, status, attendance,
    attendance_at, booking_code, review_code, additional_options, has_guarantee,
    guarantee_cents, notes, created_at, updated_at, version`

// CreateBooking reserves the table date and inserts the booking in one
// transaction, so a lost race on the date leaves no booking behind.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create booking tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	date := booking.DateTime.Format(models.DateLayout)
	if err := reserveDateTx(ctx, tx, booking.TableID, date); err != nil {
		return err
	}

	options := booking.AdditionalOptions
	if options == nil {
		options = []string{}
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("encode additional options: %w", err)
	}

	now := time.Now()
	query := `INSERT INTO bookings (` + bookingColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		booking.ID,
		booking.RestaurantID,
		booking.CustomerID,
		booking.CustomerName,
		booking.TableID,
		booking.TableNumber,
		booking.TableSeats,
		booking.DateTime,
		booking.PartySize,
		booking.Status,
		booking.Attendance,
		booking.AttendanceAt,
		booking.BookingCode,
		booking.ReviewCode,
		string(optionsJSON),
		booking.HasGuarantee,
		booking.GuaranteeCents,
		booking.Notes,
		now,
		now,
		1,
	)
	if err != nil {
		if isUniqueViolation(err, "bookings.booking_code") {
			return domain.ErrDuplicateBookingCode
		}
		return fmt.Errorf("create booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create booking: %w", err)
	}

	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return booking, nil
}

func (db *DB) GetBookingByCode(ctx context.Context, bookingCode string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_code = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, bookingCode))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return booking, nil
}

func (db *DB) GetBookingByCodes(ctx context.Context, bookingCode, reviewCode string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
        WHERE booking_code = ? AND review_code = ? AND review_code != ''`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, bookingCode, reviewCode))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return booking, nil
}

func (db *DB) GetBookingsByRestaurant(ctx context.Context, restaurantID string, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
        WHERE restaurant_id = ? AND date_time >= ? AND date_time < ?
        ORDER BY date_time, created_at`
	rows, err := db.QueryContext(ctx, query, restaurantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query restaurant bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (db *DB) GetBookingsByCustomer(ctx context.Context, customerID string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
        WHERE customer_id = ? ORDER BY date_time DESC`
	rows, err := db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("query customer bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// UpdateBookingStatus performs an optimistic status transition.
func (db *DB) UpdateBookingStatus(ctx context.Context, id string, version int64, status string) error {
	query := `UPDATE bookings SET status = ?, updated_at = ?, version = version + 1
        WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, version)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	return db.checkTransition(ctx, result, id)
}

// RecordAttendance sets the attendance outcome exactly once. The SQL
// guard on the attendance column makes the transition irreversible even
// under concurrent callers with the same version.
func (db *DB) RecordAttendance(ctx context.Context, id string, version int64, attendance, reviewCode string, at time.Time) error {
	query := `UPDATE bookings
        SET attendance = ?, review_code = ?, attendance_at = ?, updated_at = ?, version = version + 1
        WHERE id = ? AND version = ? AND attendance = ''`
	result, err := db.ExecContext(ctx, query, attendance, reviewCode, at, time.Now(), id, version)
	if err != nil {
		return fmt.Errorf("record attendance: %w", err)
	}
	return db.checkTransition(ctx, result, id)
}

func (db *DB) checkTransition(ctx context.Context, result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE id = ?`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check booking exists: %w", err)
		}
		if exists == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrVersionConflict
	}
	return nil
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var booking models.Booking
	var optionsJSON string
	err := row.Scan(
		&booking.ID,
		&booking.RestaurantID,
		&booking.CustomerID,
		&booking.CustomerName,
		&booking.TableID,
		&booking.TableNumber,
		&booking.TableSeats,
		&booking.DateTime,
		&booking.PartySize,
		&booking.Status,
		&booking.Attendance,
		&booking.AttendanceAt,
		&booking.BookingCode,
		&booking.ReviewCode,
		&optionsJSON,
		&booking.HasGuarantee,
		&booking.GuaranteeCents,
		&booking.Notes,
		&booking.CreatedAt,
		&booking.UpdatedAt,
		&booking.Version,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(optionsJSON), &booking.AdditionalOptions); err != nil {
		return nil, fmt.Errorf("decode additional options: %w", err)
	}
	return &booking, nil
}

func collectBookings(rows *sql.Rows) ([]*models.Booking, error) {
	var bookings []*models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}
