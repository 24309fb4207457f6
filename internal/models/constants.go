package models

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

const (
	AttendanceNone      = ""
	AttendanceConfirmed = "confirmed"
	AttendanceNoShow    = "no_show"
)

const (
	RoleCustomer        = "customer"
	RoleRestaurantOwner = "restaurant_owner"
)

const (
	// MaxPartySize caps a single reservation.
	MaxPartySize = 20

	// MaxNotesLength caps the free-text notes field.
	MaxNotesLength = 200

	// CancellationWindow is the cutoff before the seating time after
	// which a confirmed booking can no longer be cancelled by the customer.
	CancellationWindow = 2 * time.Hour

	// ReviewWindow is how long after attendance confirmation the code
	// pair stays valid for review submission.
	ReviewWindow = 48 * time.Hour

	// ReviewEditWindow is how long a submitted review stays editable.
	ReviewEditWindow = 24 * time.Hour

	// BookingCodeLength is the alphanumeric customer code length.
	BookingCodeLength = 6

	// ReviewCodeLength is the numeric restaurant code length.
	ReviewCodeLength = 4

	// CodeMintAttempts bounds the regenerate loop on code collisions.
	CodeMintAttempts = 5

	// GuaranteeSmallPartyCents applies to parties of up to 9 guests.
	GuaranteeSmallPartyCents int64 = 1000

	// GuaranteeLargePartyCents applies to parties of 10 and more.
	GuaranteeLargePartyCents int64 = 2000

	// BookingRateLimit / BookingRateWindow bound booking attempts per customer.
	BookingRateLimit  = 10
	BookingRateWindow = time.Hour
)

// DateLayout is the calendar-date form used for availability overrides.
const DateLayout = "2006-01-02"
