package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTableIsDateAvailable(t *testing.T) {
	table := &Table{IsAvailable: true}

	assert.True(t, table.IsDateAvailable("2026-09-10"), "no overrides means available")

	table.UnavailableDates = []string{"2026-09-10"}
	assert.False(t, table.IsDateAvailable("2026-09-10"))
	assert.True(t, table.IsDateAvailable("2026-09-11"))

	// An allow-list restricts everything not on it.
	table.AvailableDates = []string{"2026-09-11", "2026-09-12"}
	assert.True(t, table.IsDateAvailable("2026-09-11"))
	assert.False(t, table.IsDateAvailable("2026-09-13"))

	// The deny-list wins over the allow-list.
	table.UnavailableDates = []string{"2026-09-11"}
	assert.False(t, table.IsDateAvailable("2026-09-11"))
	assert.True(t, table.IsDateAvailable("2026-09-12"))

	table.IsAvailable = false
	assert.False(t, table.IsDateAvailable("2026-09-12"))
}

func TestTableSlotFor(t *testing.T) {
	table := &Table{}

	_, ok := table.SlotFor("03:00")
	assert.True(t, ok, "a table without slots accepts any time")

	table.TimeSlots = []TimeSlot{
		{StartTime: "12:00", EndTime: "15:00"},
		{StartTime: "18:00", EndTime: "22:00"},
	}

	slot, ok := table.SlotFor("12:00")
	assert.True(t, ok)
	assert.Equal(t, "12:00", slot.StartTime)

	_, ok = table.SlotFor("15:00")
	assert.False(t, ok, "slot end is exclusive")

	_, ok = table.SlotFor("19:30")
	assert.True(t, ok)

	_, ok = table.SlotFor("23:00")
	assert.False(t, ok)
}

func TestTableFitsParty(t *testing.T) {
	table := &Table{Seats: 4}
	assert.True(t, table.FitsParty(4))
	assert.True(t, table.FitsParty(1))
	assert.False(t, table.FitsParty(5))
}

func TestBookingIsCompleted(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)

	booking := &Booking{Status: StatusConfirmed, DateTime: past, Attendance: AttendanceConfirmed}
	assert.True(t, booking.IsCompleted(now))

	booking.Attendance = AttendanceNoShow
	assert.True(t, booking.IsCompleted(now), "a no-show still completes the lifecycle")

	booking.Attendance = AttendanceNone
	assert.False(t, booking.IsCompleted(now), "attendance pending is not completed")

	booking = &Booking{Status: StatusConfirmed, DateTime: now.Add(time.Hour), Attendance: AttendanceConfirmed}
	assert.False(t, booking.IsCompleted(now), "future seating time is not completed")

	booking = &Booking{Status: StatusCancelled, DateTime: past, Attendance: AttendanceConfirmed}
	assert.False(t, booking.IsCompleted(now))
}

func TestBookingIsActive(t *testing.T) {
	assert.True(t, (&Booking{Status: StatusPending}).IsActive())
	assert.True(t, (&Booking{Status: StatusConfirmed}).IsActive())
	assert.False(t, (&Booking{Status: StatusCancelled}).IsActive())
}

func TestBookingReviewWindowOpen(t *testing.T) {
	now := time.Now()

	at := now.Add(-time.Hour)
	booking := &Booking{Attendance: AttendanceConfirmed, AttendanceAt: &at}
	assert.True(t, booking.ReviewWindowOpen(now))

	expired := now.Add(-ReviewWindow - time.Minute)
	booking.AttendanceAt = &expired
	assert.False(t, booking.ReviewWindowOpen(now))

	booking = &Booking{Attendance: AttendanceNoShow, AttendanceAt: &at}
	assert.False(t, booking.ReviewWindowOpen(now), "no-shows never earn a review")

	booking = &Booking{Attendance: AttendanceConfirmed}
	assert.False(t, booking.ReviewWindowOpen(now))
}

func TestReviewIsEditable(t *testing.T) {
	now := time.Now()

	review := &Review{CreatedAt: now.Add(-time.Hour)}
	assert.True(t, review.IsEditable(now))

	review.CreatedAt = now.Add(-ReviewEditWindow - time.Minute)
	assert.False(t, review.IsEditable(now))
}

func TestActorIsOwnerOf(t *testing.T) {
	owner := Actor{ID: "rest-1", Role: RoleRestaurantOwner}
	assert.True(t, owner.IsOwnerOf("rest-1"))
	assert.False(t, owner.IsOwnerOf("rest-2"))

	customer := Actor{ID: "rest-1", Role: RoleCustomer}
	assert.False(t, customer.IsOwnerOf("rest-1"))
}
