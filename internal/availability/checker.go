// Package availability decides whether a calendar cell can be booked.
package availability

import (
	"time"

	"equipment-booking-backend/internal/parse"
	"equipment-booking-backend/internal/rules"
)

// Status is the rendering state of a single grid cell.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusSelected    Status = "selected"
	StatusUnavailable Status = "unavailable"
	StatusUnknown     Status = "unknown"
)

// IsUnavailable applies, in order: a holiday on date blocks every machine;
// otherwise a blocked slot with the same machine and opening time blocks the
// slot, but only when the record's own date equals date.
func IsUnavailable(date time.Time, slot rules.TimeSlot, machineID int64, rec Record) bool {
	_, blocked := lookup(date, slot, machineID, rec)
	return blocked
}

// Reason returns the label of the rule blocking the slot, or "" when available.
func Reason(date time.Time, slot rules.TimeSlot, machineID int64, rec Record) string {
	reason, _ := lookup(date, slot, machineID, rec)
	return reason
}

func lookup(date time.Time, slot rules.TimeSlot, machineID int64, rec Record) (string, bool) {
	day := parse.FormatDate(date)

	for _, h := range rec.Holidays {
		if sameDay(date, h.Date) {
			return h.Name, true
		}
	}

	if rec.Date != day {
		return "", false
	}
	for _, b := range rec.UnavailableSlots {
		if b.MachineID == machineID && b.OpeningTime == slot.OpeningTime {
			return b.Reason, true
		}
	}
	return "", false
}

// sameDay compares calendar days, ignoring time of day and location offset.
func sameDay(date time.Time, holiday string) bool {
	h, err := parse.ParseDate(holiday, date.Location())
	if err != nil {
		return false
	}
	y1, m1, d1 := date.Date()
	y2, m2, d2 := h.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// IsUnavailable reports whether any record in the snapshot blocks the slot.
func (s Snapshot) IsUnavailable(date time.Time, slot rules.TimeSlot, machineID int64) bool {
	_, blocked := s.Lookup(date, slot, machineID)
	return blocked
}

// Lookup returns the first blocking reason across all records.
func (s Snapshot) Lookup(date time.Time, slot rules.TimeSlot, machineID int64) (string, bool) {
	for _, rec := range s {
		if reason, blocked := lookup(date, slot, machineID, rec); blocked {
			return reason, true
		}
	}
	return "", false
}
