package model

// UnavailableSlot blocks one slot of one machine on one date.
type UnavailableSlot struct {
	ID          int64  `gorm:"primaryKey"`
	MachineID   int64  `gorm:"not null;index:idx_unavailable_machine_date"`
	Date        string `gorm:"size:8;not null;index:idx_unavailable_machine_date"` // YYYYMMDD
	OpeningTime string `gorm:"size:6;not null"`
	ClosingTime string `gorm:"size:6;not null"`
	Reason      string `gorm:"size:128;not null"`
}

// Holiday closes the whole lab for a calendar day.
type Holiday struct {
	ID          int64  `gorm:"primaryKey"`
	Date        string `gorm:"size:8;uniqueIndex;not null"` // YYYYMMDD
	Name        string `gorm:"size:128;not null"`
	Description string `gorm:"size:1024"`
}
