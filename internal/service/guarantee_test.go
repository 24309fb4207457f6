package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tavolo/internal/models"
)

func TestComputeGuarantee(t *testing.T) {
	small := ComputeGuarantee(1)
	assert.True(t, small.Required)
	assert.Equal(t, models.GuaranteeSmallPartyCents, small.AmountCents)

	// Boundary: 9 is still a small party, 10 starts the large tier.
	assert.Equal(t, models.GuaranteeSmallPartyCents, ComputeGuarantee(9).AmountCents)
	assert.Equal(t, models.GuaranteeLargePartyCents, ComputeGuarantee(10).AmountCents)
	assert.Equal(t, models.GuaranteeLargePartyCents, ComputeGuarantee(models.MaxPartySize).AmountCents)
}

func TestNoShowCharge(t *testing.T) {
	base := func() *models.Booking {
		return &models.Booking{
			Status:         models.StatusConfirmed,
			Attendance:     models.AttendanceNoShow,
			HasGuarantee:   true,
			GuaranteeCents: models.GuaranteeSmallPartyCents,
		}
	}

	amount, owed := NoShowCharge(base())
	assert.True(t, owed)
	assert.Equal(t, models.GuaranteeSmallPartyCents, amount)

	cancelled := base()
	cancelled.Status = models.StatusCancelled
	_, owed = NoShowCharge(cancelled)
	assert.False(t, owed, "a communicated cancellation clears the liability")

	attended := base()
	attended.Attendance = models.AttendanceConfirmed
	_, owed = NoShowCharge(attended)
	assert.False(t, owed)

	pendingAttendance := base()
	pendingAttendance.Attendance = models.AttendanceNone
	_, owed = NoShowCharge(pendingAttendance)
	assert.False(t, owed)

	noGuarantee := base()
	noGuarantee.HasGuarantee = false
	_, owed = NoShowCharge(noGuarantee)
	assert.False(t, owed)
}
