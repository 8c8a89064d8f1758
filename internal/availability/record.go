package availability

// BlockedSlot is a pre-existing booking or maintenance window for a machine.
type BlockedSlot struct {
	SlotID      int64  `json:"slotId"`
	MachineID   int64  `json:"machineId"`
	OpeningTime string `json:"openingTime"`
	ClosingTime string `json:"closingTime"`
	Reason      string `json:"reason"`
}

// Holiday closes every machine for a whole calendar day.
type Holiday struct {
	HolidayID   int64  `json:"holidayId"`
	Date        string `json:"date"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Record is a read-only unavailability snapshot scoped to a single date.
// Blocked slots only apply to Date; holidays apply to their own dates.
type Record struct {
	Date             string        `json:"date"`
	UnavailableSlots []BlockedSlot `json:"unavailableSlots"`
	Holidays         []Holiday     `json:"holidays"`
}

// Snapshot is the set of records a provider returned for a visible week.
// A source that only knows one date returns a single record.
type Snapshot []Record
