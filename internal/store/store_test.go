package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"equipment-booking-backend/internal/model"
	"equipment-booking-backend/internal/provider"
	"equipment-booking-backend/internal/rules"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func newSQLiteStore(t *testing.T, name string) Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.Machine{}, &model.MachineRules{}, &model.UnavailableSlot{}, &model.Holiday{}))
	return NewGormStore(db)
}

var week = struct{ from, to time.Time }{
	from: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	to:   time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC),
}

func TestGormStore_MachineNotFound(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "machines" WHERE "machines"."id" = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "lab_id", "name"}))

	_, err := s.Machine(context.Background(), 42)
	assert.ErrorIs(t, err, provider.ErrMachineNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_MachineInvalidRules(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "machines" WHERE "machines"."id" = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "lab_id", "name"}).AddRow(1, 10, "Broken"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "machine_rules" WHERE "machine_rules"."machine_id" = $1`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "machine_id", "machine_start_time", "machine_end_time",
			"lunch_start_time", "lunch_end_time", "slot_duration", "per_slot_cost",
		}).AddRow(1, 1, "180000", "080000", "120000", "130000", 1, "20.00"))

	_, err := s.Machine(context.Background(), 1)
	assert.ErrorIs(t, err, rules.ErrInvalidRules)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_UnavailabilityGroupsByDate(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "unavailable_slots" WHERE machine_id = $1 AND date BETWEEN $2 AND $3 ORDER BY date, opening_time`)).
		WithArgs(1, "20250310", "20250316").
		WillReturnRows(sqlmock.NewRows([]string{"id", "machine_id", "date", "opening_time", "closing_time", "reason"}).
			AddRow(101, 1, "20250310", "090000", "100000", "Booked").
			AddRow(102, 1, "20250310", "100000", "110000", "Maintenance").
			AddRow(201, 1, "20250314", "080000", "090000", "Calibration"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "holidays" WHERE date BETWEEN $1 AND $2 ORDER BY date`)).
		WithArgs("20250310", "20250316").
		WillReturnRows(sqlmock.NewRows([]string{"id", "date", "name", "description"}).
			AddRow(1, "20250312", "National Holiday", ""))

	snap, err := s.Unavailability(context.Background(), 1, week.from, week.to)
	require.NoError(t, err)
	require.Len(t, snap, 3)

	assert.Equal(t, "20250310", snap[0].Date)
	assert.Len(t, snap[0].UnavailableSlots, 2)
	assert.Empty(t, snap[0].Holidays)

	assert.Equal(t, "20250312", snap[1].Date)
	assert.Empty(t, snap[1].UnavailableSlots)
	require.Len(t, snap[1].Holidays, 1)
	assert.Equal(t, "National Holiday", snap[1].Holidays[0].Name)

	assert.Equal(t, "20250314", snap[2].Date)
	assert.Equal(t, "Calibration", snap[2].UnavailableSlots[0].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_UnavailabilityQueryError(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "unavailable_slots"`)).
		WillReturnError(errors.New("connection reset"))

	_, err := s.Unavailability(context.Background(), 1, week.from, week.to)
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_SeedAndRead(t *testing.T) {
	s := newSQLiteStore(t, "store_seed")
	ctx := context.Background()

	require.NoError(t, s.Seed(ctx, DemoFixture()))
	// Seeding twice must not fail or duplicate rows.
	require.NoError(t, s.Seed(ctx, DemoFixture()))

	m, err := s.Machine(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Dummy Machine A", m.Name)
	assert.Equal(t, int64(10), m.LabID)
	assert.Equal(t, "080000", m.Rules.MachineStartTime)
	assert.Equal(t, "20.00", m.Rules.PerSlotCost.StringFixed(2))
	assert.Equal(t, 2, m.Rules.BookingBeforeHr)

	var count int64
	require.NoError(t, s.DB().Model(&model.UnavailableSlot{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	snap, err := s.Unavailability(ctx, 1, week.from, week.to)
	require.NoError(t, err)
	require.Len(t, snap, 2)
	assert.Equal(t, "20250310", snap[0].Date)
	assert.Len(t, snap[0].UnavailableSlots, 3)
	assert.Equal(t, "20250312", snap[1].Date)
	assert.Len(t, snap[1].Holidays, 1)

	// Another machine sees the holiday but none of machine 1's blocked slots.
	snap, err = s.Unavailability(ctx, 2, week.from, week.to)
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, "20250312", snap[0].Date)

	// The following week is empty.
	snap, err = s.Unavailability(ctx, 1, week.from.AddDate(0, 0, 7), week.to.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Empty(t, snap)

	_, err = s.Machine(ctx, 99)
	assert.ErrorIs(t, err, provider.ErrMachineNotFound)
}
