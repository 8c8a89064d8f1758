package session

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-booking-backend/internal/metrics"
	"equipment-booking-backend/internal/provider"
)

func TestRegistry_Lifecycle(t *testing.T) {
	r := NewRegistry(newFixture().deps, time.Minute)

	c, err := r.Create(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, c.ID(), 36)

	got, err := r.Get(c.ID())
	require.NoError(t, err)
	assert.Same(t, c, got)
	assert.Equal(t, 1, r.Len())

	r.Delete(c.ID())
	_, err = r.Get(c.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistry_UnknownMachine(t *testing.T) {
	r := NewRegistry(newFixture().deps, time.Minute)

	_, err := r.Create(context.Background(), 42)
	assert.ErrorIs(t, err, provider.ErrMachineNotFound)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_IdleExpiry(t *testing.T) {
	r := NewRegistry(newFixture().deps, 50*time.Millisecond)

	c, err := r.Create(context.Background(), 1)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, found := r.items.Get(c.ID())
		return !found
	}, time.Second, 20*time.Millisecond)
}

func TestRegistry_GetDoesNotReviveClosedSession(t *testing.T) {
	r := NewRegistry(newFixture().deps, time.Minute)

	c, err := r.Create(context.Background(), 1)
	require.NoError(t, err)
	r.Delete(c.ID())

	for i := 0; i < 3; i++ {
		_, err = r.Get(c.ID())
		assert.ErrorIs(t, err, ErrSessionNotFound)
	}
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_ActiveSessionsGauge(t *testing.T) {
	deps := newFixture().deps
	deps.Metrics = metrics.New(prometheus.NewRegistry())
	r := NewRegistry(deps, time.Minute)

	a, err := r.Create(context.Background(), 1)
	require.NoError(t, err)
	b, err := r.Create(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, gaugeValue(t, deps.Metrics.ActiveSessions))

	_, err = r.Get(a.ID())
	require.NoError(t, err)
	r.Delete(a.ID())
	_, err = r.Get(a.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	r.Delete(b.ID())

	assert.Equal(t, 0.0, gaugeValue(t, deps.Metrics.ActiveSessions))
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}
