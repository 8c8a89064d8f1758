package store

import (
	"github.com/shopspring/decimal"

	"equipment-booking-backend/internal/model"
)

// Fixture is a set of rows loaded by Seed.
type Fixture struct {
	Machines         []model.Machine
	UnavailableSlots []model.UnavailableSlot
	Holidays         []model.Holiday
}

// DemoFixture is a single machine with a booked morning on 2025-03-10 and a
// lab-wide holiday on 2025-03-12.
func DemoFixture() Fixture {
	return Fixture{
		Machines: []model.Machine{
			{
				ID:          1,
				LabID:       10,
				Name:        "Dummy Machine A",
				Description: "This is a dummy machine for demonstration purposes.",
				Image:       "dummy_machine_a.png",
				Rules: model.MachineRules{
					MachineStartTime: "080000",
					MachineEndTime:   "180000",
					LunchStartTime:   "120000",
					LunchEndTime:     "130000",
					SlotDuration:     1,
					PerSlotCost:      decimal.RequireFromString("20.00"),
					BookingBeforeHr:  2,
					CancelBeforeHr:   1,
				},
			},
		},
		UnavailableSlots: []model.UnavailableSlot{
			{ID: 101, MachineID: 1, Date: "20250310", OpeningTime: "090000", ClosingTime: "100000", Reason: "Booked"},
			{ID: 102, MachineID: 1, Date: "20250310", OpeningTime: "100000", ClosingTime: "110000", Reason: "Maintenance"},
			{ID: 103, MachineID: 1, Date: "20250310", OpeningTime: "140000", ClosingTime: "150000", Reason: "Booked"},
		},
		Holidays: []model.Holiday{
			{ID: 1, Date: "20250312", Name: "National Holiday", Description: "Public holiday for national celebration."},
		},
	}
}
