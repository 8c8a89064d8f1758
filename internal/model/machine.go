package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Machine represents a bookable lab machine.
type Machine struct {
	ID          int64  `gorm:"primaryKey"`
	LabID       int64  `gorm:"index;not null"`
	Name        string `gorm:"size:256;not null"`
	Description string `gorm:"size:1024"`
	Image       string `gorm:"size:256"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Associations
	Rules MachineRules `gorm:"foreignKey:MachineID;constraint:OnDelete:CASCADE"`
}

// MachineRules holds a machine's operating hours and pricing. Times are
// 6-digit HHMMSS strings exactly as the booking widget consumes them.
type MachineRules struct {
	ID               int64           `gorm:"primaryKey"`
	MachineID        int64           `gorm:"uniqueIndex;not null"`
	MachineStartTime string          `gorm:"size:6;not null"`
	MachineEndTime   string          `gorm:"size:6;not null"`
	LunchStartTime   string          `gorm:"size:6;not null"`
	LunchEndTime     string          `gorm:"size:6;not null"`
	SlotDuration     int             `gorm:"not null"`
	PerSlotCost      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	BookingBeforeHr  int
	CancelBeforeHr   int
	UpdatedAt        time.Time
}
