package models

import "time"

// Booking is a single reservation record. Status moves through the
// pending/confirmed/cancelled machine; Attendance is an orthogonal
// outcome recorded by the restaurant once the booking is confirmed.
type Booking struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`

	// Table snapshot, kept denormalized so the booking stays displayable
	// after the table itself is deleted.
	TableID     string `json:"table_id"`
	TableNumber int64  `json:"table_number"`
	TableSeats  int64  `json:"table_seats"`

	DateTime          time.Time  `json:"date_time"`
	PartySize         int64      `json:"party_size"`
	Status            string     `json:"status"`
	Attendance        string     `json:"attendance"`
	AttendanceAt      *time.Time `json:"attendance_at,omitempty"`
	BookingCode       string     `json:"booking_code"`
	ReviewCode        string     `json:"review_code,omitempty"`
	AdditionalOptions []string   `json:"additional_options,omitempty"`
	HasGuarantee      bool       `json:"has_guarantee"`
	GuaranteeCents    int64      `json:"guarantee_cents"`
	Notes             string     `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// IsCompleted reports whether the booking counts as completed at the
// given instant. Completion is never stored; this predicate is the single
// definition used everywhere it matters.
func (b *Booking) IsCompleted(now time.Time) bool {
	return b.Status == StatusConfirmed &&
		b.DateTime.Before(now) &&
		b.Attendance != AttendanceNone
}

// IsActive reports whether the booking still occupies its table date.
func (b *Booking) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// ReviewWindowOpen reports whether the review submission window is still
// open at the given instant. The window starts at attendance confirmation.
func (b *Booking) ReviewWindowOpen(now time.Time) bool {
	if b.Attendance != AttendanceConfirmed || b.AttendanceAt == nil {
		return false
	}
	return now.Before(b.AttendanceAt.Add(ReviewWindow))
}
