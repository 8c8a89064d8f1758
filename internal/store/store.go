// Package store reads machine rules and unavailability from the database.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"equipment-booking-backend/internal/availability"
	"equipment-booking-backend/internal/model"
	"equipment-booking-backend/internal/parse"
	"equipment-booking-backend/internal/provider"
	"equipment-booking-backend/internal/rules"
)

// Store is the database-backed data provider.
type Store interface {
	provider.Provider
	Seed(ctx context.Context, f Fixture) error
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// Machine loads a machine with its rules. Rules are validated here so that
// malformed rows never reach slot generation.
func (s *gormStore) Machine(ctx context.Context, machineID int64) (rules.Machine, error) {
	var m model.Machine
	err := s.db.WithContext(ctx).Preload("Rules").First(&m, machineID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rules.Machine{}, provider.ErrMachineNotFound
	}
	if err != nil {
		return rules.Machine{}, fmt.Errorf("failed to load machine %d: %w", machineID, err)
	}
	if m.Rules.MachineID == 0 {
		return rules.Machine{}, fmt.Errorf("machine %d has no operating rules", machineID)
	}

	out := toMachine(m)
	if err := provider.ValidateMachine(out); err != nil {
		return rules.Machine{}, err
	}
	return out, nil
}

// Unavailability returns one record per date in [from, to] that has a blocked
// slot for the machine or a holiday. Dates without either are omitted.
func (s *gormStore) Unavailability(ctx context.Context, machineID int64, from, to time.Time) (availability.Snapshot, error) {
	fromKey, toKey := parse.FormatDate(from), parse.FormatDate(to)

	var slots []model.UnavailableSlot
	if err := s.db.WithContext(ctx).
		Where("machine_id = ? AND date BETWEEN ? AND ?", machineID, fromKey, toKey).
		Order("date, opening_time").
		Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch unavailable slots: %w", err)
	}

	var holidays []model.Holiday
	if err := s.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", fromKey, toKey).
		Order("date").
		Find(&holidays).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch holidays: %w", err)
	}

	return groupByDate(slots, holidays), nil
}

func groupByDate(slots []model.UnavailableSlot, holidays []model.Holiday) availability.Snapshot {
	byDate := make(map[string]*availability.Record)
	get := func(date string) *availability.Record {
		rec, ok := byDate[date]
		if !ok {
			rec = &availability.Record{
				Date:             date,
				UnavailableSlots: []availability.BlockedSlot{},
				Holidays:         []availability.Holiday{},
			}
			byDate[date] = rec
		}
		return rec
	}

	for _, sl := range slots {
		rec := get(sl.Date)
		rec.UnavailableSlots = append(rec.UnavailableSlots, availability.BlockedSlot{
			SlotID:      sl.ID,
			MachineID:   sl.MachineID,
			OpeningTime: sl.OpeningTime,
			ClosingTime: sl.ClosingTime,
			Reason:      sl.Reason,
		})
	}
	for _, h := range holidays {
		rec := get(h.Date)
		rec.Holidays = append(rec.Holidays, availability.Holiday{
			HolidayID:   h.ID,
			Date:        h.Date,
			Name:        h.Name,
			Description: h.Description,
		})
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	snap := make(availability.Snapshot, 0, len(dates))
	for _, d := range dates {
		snap = append(snap, *byDate[d])
	}
	return snap
}

func toMachine(m model.Machine) rules.Machine {
	return rules.Machine{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Image:       m.Image,
		LabID:       m.LabID,
		Rules: rules.OperatingRules{
			MachineStartTime:  m.Rules.MachineStartTime,
			MachineEndTime:    m.Rules.MachineEndTime,
			LunchStartTime:    m.Rules.LunchStartTime,
			LunchEndTime:      m.Rules.LunchEndTime,
			SlotDurationHours: m.Rules.SlotDuration,
			PerSlotCost:       m.Rules.PerSlotCost,
			BookingBeforeHr:   m.Rules.BookingBeforeHr,
			CancelBeforeHr:    m.Rules.CancelBeforeHr,
		},
	}
}

// Seed upserts a fixture transactionally. Re-seeding the same fixture is a no-op.
func (s *gormStore) Seed(ctx context.Context, f Fixture) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range f.Machines {
			machine := m
			machine.Rules = model.MachineRules{}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"lab_id", "name", "description", "image", "updated_at"}),
			}).Omit(clause.Associations).Create(&machine).Error; err != nil {
				return fmt.Errorf("failed to upsert machine %d: %w", m.ID, err)
			}

			r := m.Rules
			r.MachineID = m.ID
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "machine_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"machine_start_time", "machine_end_time", "lunch_start_time", "lunch_end_time",
					"slot_duration", "per_slot_cost", "booking_before_hr", "cancel_before_hr", "updated_at",
				}),
			}).Create(&r).Error; err != nil {
				return fmt.Errorf("failed to upsert rules for machine %d: %w", m.ID, err)
			}
		}

		if len(f.UnavailableSlots) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"machine_id", "date", "opening_time", "closing_time", "reason"}),
			}).Create(&f.UnavailableSlots).Error; err != nil {
				return fmt.Errorf("batch upsert unavailable slots failed: %w", err)
			}
		}

		if len(f.Holidays) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "date"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "description"}),
			}).Create(&f.Holidays).Error; err != nil {
				return fmt.Errorf("batch upsert holidays failed: %w", err)
			}
		}
		return nil
	})
}
