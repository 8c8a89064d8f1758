// Package selection keeps a user's multi-slot choice across week navigation.
//
// A Set is a value: Toggle returns a new Set and never mutates its receiver,
// so the owner decides when a new selection becomes current.
package selection

import (
	"sort"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"equipment-booking-backend/internal/parse"
)

// Slot is one selected calendar cell. Identity is (SlotDate, OpeningTime);
// ID is a display label only.
type Slot struct {
	ID          int64  `json:"id"`
	SlotDate    string `json:"slotDate"`
	MachineID   int64  `json:"machineId"`
	OpeningTime string `json:"openingTime"`
	ClosingTime string `json:"closingTime"`
}

func (s Slot) sameCell(date, opening string) bool {
	return s.SlotDate == date && s.OpeningTime == opening
}

// Set is the ordered selection in click order.
type Set []Slot

// IsSelected reports whether the cell (date, opening) is in the set.
func (s Set) IsSelected(date, opening string) bool {
	for _, slot := range s {
		if slot.sameCell(date, opening) {
			return true
		}
	}
	return false
}

// Toggle removes the slot's cell if present, otherwise appends the slot.
func (s Set) Toggle(slot Slot) Set {
	if s.IsSelected(slot.SlotDate, slot.OpeningTime) {
		out := make(Set, 0, len(s)-1)
		for _, existing := range s {
			if !existing.sameCell(slot.SlotDate, slot.OpeningTime) {
				out = append(out, existing)
			}
		}
		return out
	}
	out := make(Set, len(s), len(s)+1)
	copy(out, s)
	return append(out, slot)
}

// Len returns the number of selected slots.
func (s Set) Len() int { return len(s) }

// Sorted returns a copy ordered by (SlotDate, OpeningTime). Both are fixed
// width digit strings, so lexical order is chronological order.
func (s Set) Sorted() []Slot {
	out := make([]Slot, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SlotDate != out[j].SlotDate {
			return out[i].SlotDate < out[j].SlotDate
		}
		return out[i].OpeningTime < out[j].OpeningTime
	})
	return out
}

// TotalCost is perSlotCost × len(s), rounded to 2 decimal places.
func TotalCost(s Set, perSlotCost decimal.Decimal) decimal.Decimal {
	return perSlotCost.Mul(decimal.NewFromInt(int64(len(s)))).Round(2)
}

// FormatAmount renders an amount with exactly 2 decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Span returns the opening stamp of the first sorted slot and the closing
// stamp of the last one. For a disjoint selection the range covers the gaps.
func Span(sorted []Slot) (startAt, endAt string, ok bool) {
	if len(sorted) == 0 {
		return "", "", false
	}
	first, last := sorted[0], sorted[len(sorted)-1]
	return parse.Stamp(first.SlotDate, first.OpeningTime), parse.Stamp(last.SlotDate, last.ClosingTime), true
}

// Runs groups sorted slots into back-to-back blocks on the same date.
func Runs(sorted []Slot) [][]Slot {
	if len(sorted) == 0 {
		return nil
	}
	var groups [][]Slot
	current := []Slot{sorted[0]}
	for _, s := range sorted[1:] {
		prev := current[len(current)-1]
		if s.SlotDate == prev.SlotDate && s.OpeningTime == prev.ClosingTime {
			current = append(current, s)
			continue
		}
		groups = append(groups, current)
		current = []Slot{s}
	}
	return append(groups, current)
}

// IDSource hands out monotonically increasing display ids.
type IDSource struct {
	last atomic.Int64
}

// Next returns the next id, starting at 1.
func (s *IDSource) Next() int64 {
	return s.last.Add(1)
}
