// Package provider defines where machine rules and unavailability come from.
// Shape validation happens here, at the boundary; the slot and selection
// logic downstream trusts what a Provider returns.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"equipment-booking-backend/internal/availability"
	"equipment-booking-backend/internal/parse"
	"equipment-booking-backend/internal/rules"
)

// ErrMachineNotFound is returned when the machine id is unknown to the source.
var ErrMachineNotFound = errors.New("machine not found")

// Provider supplies the inputs of the booking calendar.
type Provider interface {
	Machine(ctx context.Context, machineID int64) (rules.Machine, error)
	// Unavailability returns the snapshot covering the dates [from, to].
	Unavailability(ctx context.Context, machineID int64, from, to time.Time) (availability.Snapshot, error)
}

// ValidateMachine checks the rules of a machine loaded from any source.
func ValidateMachine(m rules.Machine) error {
	if m.ID <= 0 {
		return fmt.Errorf("machine id must be positive, got %d", m.ID)
	}
	if err := m.Rules.Validate(); err != nil {
		return fmt.Errorf("machine %d: %w", m.ID, err)
	}
	return nil
}

// ValidateSnapshot checks date and time formats of every record.
func ValidateSnapshot(s availability.Snapshot) error {
	for i, rec := range s {
		if _, err := parse.ParseDate(rec.Date, time.UTC); err != nil {
			return fmt.Errorf("record[%d]: %w", i, err)
		}
		for j, b := range rec.UnavailableSlots {
			if _, err := parse.ParseClock(b.OpeningTime); err != nil {
				return fmt.Errorf("record[%d].unavailableSlots[%d].openingTime: %w", i, j, err)
			}
		}
		for j, h := range rec.Holidays {
			if _, err := parse.ParseDate(h.Date, time.UTC); err != nil {
				return fmt.Errorf("record[%d].holidays[%d]: %w", i, j, err)
			}
		}
	}
	return nil
}
