package models

import "time"

// TimeSlot is a bookable window within a day, e.g. a lunch or dinner
// shift. Times are "HH:MM" in the restaurant's local day.
type TimeSlot struct {
	StartTime string `json:"start_time" yaml:"start_time"`
	EndTime   string `json:"end_time" yaml:"end_time"`
}

// Table is a physical table owned by a restaurant. Availability is a
// sparse per-date override model: tables are available by default,
// AvailableDates (when set) acts as an allow-list and UnavailableDates
// always wins as a deny-list.
type Table struct {
	ID               string     `json:"id"`
	RestaurantID     string     `json:"restaurant_id"`
	TableNumber      int64      `json:"table_number"`
	Seats            int64      `json:"seats"`
	IsAvailable      bool       `json:"is_available"`
	AvailableDates   []string   `json:"available_dates,omitempty"`
	UnavailableDates []string   `json:"unavailable_dates,omitempty"`
	TimeSlots        []TimeSlot `json:"time_slots,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Version          int64      `json:"version"`
}

// IsDateAvailable applies the override algebra for a calendar date.
func (t *Table) IsDateAvailable(date string) bool {
	if !t.IsAvailable {
		return false
	}
	for _, d := range t.UnavailableDates {
		if d == date {
			return false
		}
	}
	if len(t.AvailableDates) > 0 {
		for _, d := range t.AvailableDates {
			if d == date {
				return true
			}
		}
		return false
	}
	return true
}

// FitsParty reports whether the table seats the requested party.
func (t *Table) FitsParty(partySize int64) bool {
	return t.Seats >= partySize
}

// SlotFor returns the time slot containing the given "HH:MM" seating
// time, if any. A table without slots accepts any time.
func (t *Table) SlotFor(hhmm string) (TimeSlot, bool) {
	if len(t.TimeSlots) == 0 {
		return TimeSlot{}, true
	}
	for _, slot := range t.TimeSlots {
		if slot.StartTime <= hhmm && hhmm < slot.EndTime {
			return slot, true
		}
	}
	return TimeSlot{}, false
}

// TablePatch carries partial updates for a table. Nil fields are left
// unchanged.
type TablePatch struct {
	TableNumber      *int64      `json:"table_number,omitempty"`
	Seats            *int64      `json:"seats,omitempty"`
	IsAvailable      *bool       `json:"is_available,omitempty"`
	AvailableDates   *[]string   `json:"available_dates,omitempty"`
	UnavailableDates *[]string   `json:"unavailable_dates,omitempty"`
	TimeSlots        *[]TimeSlot `json:"time_slots,omitempty"`
}
