// Package rules turns a machine's operating-hours configuration into the
// ordered list of bookable time slots that repeats every calendar day.
package rules

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"equipment-booking-backend/internal/parse"
)

// ErrInvalidRules is matched by every *ConfigError.
var ErrInvalidRules = errors.New("invalid operating rules")

// ConfigError reports a malformed OperatingRules field.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid operating rules: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrInvalidRules) match any ConfigError.
func (e *ConfigError) Is(target error) bool { return target == ErrInvalidRules }

// OperatingRules is the immutable booking configuration of one machine.
type OperatingRules struct {
	MachineStartTime  string          `json:"machineStartTime"`
	MachineEndTime    string          `json:"machineEndTime"`
	LunchStartTime    string          `json:"lunchStartTime"`
	LunchEndTime      string          `json:"lunchEndTime"`
	SlotDurationHours int             `json:"slot_duration"`
	PerSlotCost       decimal.Decimal `json:"machinePerSlotCost"`
	BookingBeforeHr   int             `json:"bookingBeforeHr"`
	CancelBeforeHr    int             `json:"cancelBeforeHr"`
}

// Machine is a bookable machine together with its rules.
type Machine struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	LabID       int64          `json:"lab_id"`
	Rules       OperatingRules `json:"rules"`
}

// TimeSlot is a time-of-day interval; it carries no date.
type TimeSlot struct {
	OpeningTime string `json:"openingTime"`
	ClosingTime string `json:"closingTime"`
}

type hours struct {
	start, end, lunchStart, lunchEnd int
}

func (r OperatingRules) hours() (hours, error) {
	var h hours
	fields := []struct {
		name string
		raw  string
		dst  *int
	}{
		{"machineStartTime", r.MachineStartTime, &h.start},
		{"machineEndTime", r.MachineEndTime, &h.end},
		{"lunchStartTime", r.LunchStartTime, &h.lunchStart},
		{"lunchEndTime", r.LunchEndTime, &h.lunchEnd},
	}
	for _, f := range fields {
		v, err := parse.ParseHour(f.raw)
		if err != nil {
			return hours{}, &ConfigError{Field: f.name, Err: err}
		}
		*f.dst = v
	}
	return h, nil
}

// Validate checks field formats and start < lunchStart <= lunchEnd < end.
func (r OperatingRules) Validate() error {
	h, err := r.hours()
	if err != nil {
		return err
	}
	if r.SlotDurationHours < 1 {
		return &ConfigError{Field: "slot_duration", Err: fmt.Errorf("must be at least 1 hour, got %d", r.SlotDurationHours)}
	}
	if r.PerSlotCost.IsNegative() {
		return &ConfigError{Field: "machinePerSlotCost", Err: fmt.Errorf("must not be negative, got %s", r.PerSlotCost)}
	}
	if !(h.start < h.lunchStart && h.lunchStart <= h.lunchEnd && h.lunchEnd < h.end) {
		return &ConfigError{
			Field: "hours",
			Err: fmt.Errorf("expected start < lunch start <= lunch end < end, got %02d/%02d/%02d/%02d",
				h.start, h.lunchStart, h.lunchEnd, h.end),
		}
	}
	return nil
}

// GenerateDaySlots returns the slots of a day in ascending order. A step whose
// start hour falls in [lunchStart, lunchEnd) is dropped whole. When the duration
// does not divide a working window evenly the last slot of that window runs past
// the lunch or closing boundary.
func GenerateDaySlots(r OperatingRules) ([]TimeSlot, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	h, _ := r.hours()

	step := r.SlotDurationHours
	slots := make([]TimeSlot, 0, (h.end-h.start)/step+1)
	for hour := h.start; hour < h.end; hour += step {
		if hour >= h.lunchStart && hour < h.lunchEnd {
			continue
		}
		slots = append(slots, TimeSlot{
			OpeningTime: parse.FormatHour(hour),
			ClosingTime: parse.FormatHour(hour + step),
		})
	}
	return slots, nil
}

// Find returns the slot opening at the given HHMMSS value.
func Find(slots []TimeSlot, openingTime string) (TimeSlot, bool) {
	for _, s := range slots {
		if s.OpeningTime == openingTime {
			return s, true
		}
	}
	return TimeSlot{}, false
}
