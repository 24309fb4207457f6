package domain

import (
	"context"
	"time"

	"tavolo/internal/models"
)

// TableStore persists restaurant tables and their per-date overrides.
type TableStore interface {
	CreateTable(ctx context.Context, table *models.Table) error
	GetTable(ctx context.Context, id string) (*models.Table, error)
	GetTablesByRestaurant(ctx context.Context, restaurantID string) ([]*models.Table, error)
	UpdateTable(ctx context.Context, table *models.Table) error
	DeleteTable(ctx context.Context, id string) error

	// ReserveDate atomically adds the date to the table's unavailable
	// list; it fails with ErrTableNoLongerAvailable when the date is
	// already held. ReleaseDate is idempotent and tolerates a deleted
	// table.
	ReserveDate(ctx context.Context, tableID, date string) error
	ReleaseDate(ctx context.Context, tableID, date string) error
}

// BookingStore persists bookings. Transitions use optimistic version
// checks; a stale version yields ErrVersionConflict.
type BookingStore interface {
	// CreateBooking inserts the booking and reserves its table date in
	// one transaction.
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetBookingByCode(ctx context.Context, bookingCode string) (*models.Booking, error)
	GetBookingByCodes(ctx context.Context, bookingCode, reviewCode string) (*models.Booking, error)
	GetBookingsByRestaurant(ctx context.Context, restaurantID string, start, end time.Time) ([]*models.Booking, error)
	GetBookingsByCustomer(ctx context.Context, customerID string) ([]*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, version int64, status string) error
	RecordAttendance(ctx context.Context, id string, version int64, attendance, reviewCode string, at time.Time) error
}

// ReviewStore persists submitted reviews, at most one per booking.
type ReviewStore interface {
	CreateReview(ctx context.Context, review *models.Review) error
	GetReview(ctx context.Context, id string) (*models.Review, error)
	UpdateReview(ctx context.Context, review *models.Review) error
	GetReviewsByRestaurant(ctx context.Context, restaurantID string) ([]*models.Review, error)
}

// SessionRepository holds short-lived verified review sessions and
// per-customer booking rate limits. Implementations may lose data on
// restart; everything stored here can be re-derived.
type SessionRepository interface {
	GetSession(ctx context.Context, key string) (*models.ReviewSession, error)
	SetSession(ctx context.Context, key string, session *models.ReviewSession, ttl time.Duration) error
	ClearSession(ctx context.Context, key string) error
	CheckRateLimit(ctx context.Context, actorID string, limit int, window time.Duration) (bool, error)
}

// EventPublisher notifies the external notification layer.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
