package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"equipment-booking-backend/internal/rules"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dummyRecord() Record {
	return Record{
		Date: "20250310",
		UnavailableSlots: []BlockedSlot{
			{SlotID: 101, MachineID: 1, OpeningTime: "090000", ClosingTime: "100000", Reason: "Booked"},
			{SlotID: 102, MachineID: 1, OpeningTime: "100000", ClosingTime: "110000", Reason: "Maintenance"},
			{SlotID: 103, MachineID: 1, OpeningTime: "140000", ClosingTime: "150000", Reason: "Booked"},
		},
		Holidays: []Holiday{
			{HolidayID: 1, Date: "20250312", Name: "National Holiday", Description: "Public holiday for national celebration."},
		},
	}
}

var allSlots = func() []rules.TimeSlot {
	out := []rules.TimeSlot{}
	for _, h := range []string{"08", "09", "10", "11", "13", "14", "15", "16", "17"} {
		out = append(out, rules.TimeSlot{OpeningTime: h + "0000"})
	}
	return out
}()

func TestIsUnavailable(t *testing.T) {
	rec := dummyRecord()

	testCases := []struct {
		name      string
		date      time.Time
		opening   string
		machineID int64
		expected  bool
		reason    string
	}{
		{name: "blocked slot on snapshot date", date: day(2025, 3, 10), opening: "090000", machineID: 1, expected: true, reason: "Booked"},
		{name: "maintenance on snapshot date", date: day(2025, 3, 10), opening: "100000", machineID: 1, expected: true, reason: "Maintenance"},
		{name: "open slot on snapshot date", date: day(2025, 3, 10), opening: "080000", machineID: 1, expected: false},
		{name: "other machine on snapshot date", date: day(2025, 3, 10), opening: "090000", machineID: 2, expected: false},
		{name: "same time on another date", date: day(2025, 3, 11), opening: "090000", machineID: 1, expected: false},
		{name: "holiday blocks machine", date: day(2025, 3, 12), opening: "080000", machineID: 1, expected: true, reason: "National Holiday"},
		{name: "holiday blocks other machine", date: day(2025, 3, 12), opening: "170000", machineID: 99, expected: true, reason: "National Holiday"},
		{name: "holiday ignores time of day", date: time.Date(2025, 3, 12, 15, 45, 0, 0, time.UTC), opening: "150000", machineID: 1, expected: true, reason: "National Holiday"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			slot := rules.TimeSlot{OpeningTime: tc.opening}
			assert.Equal(t, tc.expected, IsUnavailable(tc.date, slot, tc.machineID, rec))
			assert.Equal(t, tc.reason, Reason(tc.date, slot, tc.machineID, rec))
		})
	}
}

func TestIsUnavailable_HolidayBlocksEverySlot(t *testing.T) {
	rec := dummyRecord()
	rec.UnavailableSlots = nil

	for _, machineID := range []int64{1, 2, 3} {
		for _, slot := range allSlots {
			assert.True(t, IsUnavailable(day(2025, 3, 12), slot, machineID, rec))
		}
	}
}

func TestIsUnavailable_EmptyRecord(t *testing.T) {
	for _, slot := range allSlots {
		assert.False(t, IsUnavailable(day(2025, 3, 10), slot, 1, Record{}))
	}
}

func TestSnapshot_Lookup(t *testing.T) {
	snap := Snapshot{
		dummyRecord(),
		{Date: "20250311", UnavailableSlots: []BlockedSlot{{MachineID: 1, OpeningTime: "130000", Reason: "Calibration"}}},
	}

	reason, blocked := snap.Lookup(day(2025, 3, 11), rules.TimeSlot{OpeningTime: "130000"}, 1)
	assert.True(t, blocked)
	assert.Equal(t, "Calibration", reason)

	assert.True(t, snap.IsUnavailable(day(2025, 3, 10), rules.TimeSlot{OpeningTime: "140000"}, 1))
	assert.True(t, snap.IsUnavailable(day(2025, 3, 12), rules.TimeSlot{OpeningTime: "080000"}, 1))
	assert.False(t, snap.IsUnavailable(day(2025, 3, 13), rules.TimeSlot{OpeningTime: "090000"}, 1))
	assert.False(t, Snapshot(nil).IsUnavailable(day(2025, 3, 10), rules.TimeSlot{OpeningTime: "090000"}, 1))
}
