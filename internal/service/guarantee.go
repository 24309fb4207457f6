package service

import "tavolo/internal/models"

// Guarantee is the no-show deterrent attached to a booking. It is a
// liability evaluated on no-show, not a deposit collected up front;
// actual payment capture belongs to an external collaborator.
type Guarantee struct {
	Required    bool
	AmountCents int64
}

// ComputeGuarantee returns the guarantee terms for a party size.
func ComputeGuarantee(partySize int64) Guarantee {
	if partySize >= 10 {
		return Guarantee{Required: true, AmountCents: models.GuaranteeLargePartyCents}
	}
	return Guarantee{Required: true, AmountCents: models.GuaranteeSmallPartyCents}
}

// NoShowCharge reports whether a charge is owed for the booking and the
// amount. A charge is owed only when the restaurant recorded a no-show
// and the booking was never cancelled beforehand; any communicated
// cancellation clears the liability.
func NoShowCharge(booking *models.Booking) (int64, bool) {
	if booking.Status == models.StatusCancelled {
		return 0, false
	}
	if booking.Attendance != models.AttendanceNoShow {
		return 0, false
	}
	if !booking.HasGuarantee {
		return 0, false
	}
	return booking.GuaranteeCents, true
}
