package domain

import "errors"

// Sentinel errors returned by the engine. Callers branch with errors.Is;
// the HTTP layer maps them to status codes via Classify.
var (
	// Validation
	ErrInvalidPartySize  = errors.New("party size must be between 1 and 20")
	ErrPastDate          = errors.New("reservation time must be in the future")
	ErrDateTooFar        = errors.New("reservation time is too far in the future")
	ErrNotesTooLong      = errors.New("notes exceed maximum length")
	ErrInvalidCodeFormat = errors.New("malformed verification code")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrInvalidTableSpec  = errors.New("table number and seats must be positive")

	// Conflict
	ErrDuplicateTableNumber   = errors.New("table number already exists for restaurant")
	ErrTableNoLongerAvailable = errors.New("table date already reserved")
	ErrDuplicateBookingCode   = errors.New("booking code collision")
	ErrVersionConflict        = errors.New("record modified concurrently")
	ErrReviewExists           = errors.New("review already submitted for booking")

	// State
	ErrInvalidTransition         = errors.New("operation not allowed in current booking state")
	ErrSlotUnavailable           = errors.New("no table available for the requested slot")
	ErrCancellationWindowExpired = errors.New("cancellation window has expired")
	ErrReviewWindowExpired       = errors.New("review submission window has expired")
	ErrReviewLocked              = errors.New("review is no longer editable")
	ErrAttendanceRecorded        = errors.New("attendance already recorded")

	// Authorization / lookup
	ErrForbidden = errors.New("actor is not allowed to perform this operation")
	ErrNotFound  = errors.New("record not found")

	// Rate limiting
	ErrRateLimited = errors.New("too many booking attempts")
)

// Kind buckets sentinel errors for transport mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindConflict
	KindState
	KindNotFound
	KindForbidden
	KindRateLimited
)

// Classify returns the error kind for any engine error.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidPartySize),
		errors.Is(err, ErrPastDate),
		errors.Is(err, ErrDateTooFar),
		errors.Is(err, ErrNotesTooLong),
		errors.Is(err, ErrInvalidCodeFormat),
		errors.Is(err, ErrInvalidRating),
		errors.Is(err, ErrInvalidTableSpec):
		return KindValidation
	case errors.Is(err, ErrDuplicateTableNumber),
		errors.Is(err, ErrTableNoLongerAvailable),
		errors.Is(err, ErrDuplicateBookingCode),
		errors.Is(err, ErrVersionConflict),
		errors.Is(err, ErrReviewExists):
		return KindConflict
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrSlotUnavailable),
		errors.Is(err, ErrCancellationWindowExpired),
		errors.Is(err, ErrReviewWindowExpired),
		errors.Is(err, ErrReviewLocked),
		errors.Is(err, ErrAttendanceRecorded):
		return KindState
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	default:
		return KindUnknown
	}
}
