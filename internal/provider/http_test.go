package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-booking-backend/config"
)

const machineJSON = `{
  "id": 1,
  "name": "Dummy Machine A",
  "description": "Demo machine",
  "image": "machine.png",
  "lab_id": 10,
  "rules": {
    "machineStartTime": "080000",
    "machineEndTime": "180000",
    "lunchStartTime": "120000",
    "lunchEndTime": "130000",
    "slot_duration": 1,
    "machinePerSlotCost": "20.00",
    "bookingBeforeHr": 2,
    "cancelBeforeHr": 1
  }
}`

const recordJSON = `{
  "date": "20250310",
  "unavailableSlots": [
    {"slotId": 101, "machineId": 1, "openingTime": "090000", "closingTime": "100000", "reason": "Maintenance"}
  ],
  "holidays": [
    {"holidayId": 1, "date": "20250312", "name": "National Holiday", "description": "Lab closed"}
  ]
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc) *HTTPProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := zerolog.Nop()
	return NewHTTPProvider(config.ProviderConfig{
		BaseURL: srv.URL + "/",
		Headers: map[string]string{"X-Api-Key": "secret"},
		Timeout: 5 * time.Second,
	}, &logger)
}

func TestHTTPProvider_Machine(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/machines/1", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(machineJSON))
	})

	m, err := p.Machine(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Dummy Machine A", m.Name)
	assert.Equal(t, int64(10), m.LabID)
	assert.Equal(t, 1, m.Rules.SlotDurationHours)
	assert.Equal(t, "20.00", m.Rules.PerSlotCost.StringFixed(2))
}

func TestHTTPProvider_MachineNotFound(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := p.Machine(context.Background(), 7)
	assert.ErrorIs(t, err, ErrMachineNotFound)
}

func TestHTTPProvider_MachineInvalidRules(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 1, "rules": {"machineStartTime": "8", "machineEndTime": "180000",
		  "lunchStartTime": "120000", "lunchEndTime": "130000", "slot_duration": 1, "machinePerSlotCost": "1"}}`))
	})

	_, err := p.Machine(context.Background(), 1)
	assert.Error(t, err)
}

func TestHTTPProvider_UnavailabilitySingleRecord(t *testing.T) {
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 6)

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/machines/1/unavailability", r.URL.Path)
		assert.Equal(t, "20250310", r.URL.Query().Get("from"))
		assert.Equal(t, "20250316", r.URL.Query().Get("to"))
		_, _ = w.Write([]byte(recordJSON))
	})

	snap, err := p.Unavailability(context.Background(), 1, from, to)
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, "20250310", snap[0].Date)
	require.Len(t, snap[0].UnavailableSlots, 1)
	assert.Equal(t, "Maintenance", snap[0].UnavailableSlots[0].Reason)
	require.Len(t, snap[0].Holidays, 1)
}

func TestHTTPProvider_UnavailabilityList(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[` + recordJSON + `, {"date": "20250311", "unavailableSlots": [], "holidays": []}]`))
	})

	snap, err := p.Unavailability(context.Background(), 1, time.Now(), time.Now())
	require.NoError(t, err)
	require.Len(t, snap, 2)
	assert.Equal(t, "20250311", snap[1].Date)
}

func TestHTTPProvider_UnavailabilityErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"server error", http.StatusInternalServerError, `{}`},
		{"malformed json", http.StatusOK, `{"date": `},
		{"bad date", http.StatusOK, `{"date": "2025-03-10", "unavailableSlots": [], "holidays": []}`},
		{"bad opening time", http.StatusOK, `{"date": "20250310", "unavailableSlots": [{"openingTime": "9am"}], "holidays": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			})
			_, err := p.Unavailability(context.Background(), 1, time.Now(), time.Now())
			assert.Error(t, err)
		})
	}
}
