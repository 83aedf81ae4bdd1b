package timeseries

import (
	"testing"
	"time"

	"firesafe-engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestTick_DecaysSpike(t *testing.T) {
	b := NewBuffer(10, 0.9)

	b.Observe(models.SensorReading{ID: "r1", TemperatureC: 120, Status: models.SensorDanger})
	first := b.Tick(t0)
	assert.InDelta(t, 100.0, first.Value, 1e-9)

	second := b.Tick(t0.Add(time.Second))
	assert.InDelta(t, 90.0, second.Value, 1e-9)
	third := b.Tick(t0.Add(2 * time.Second))
	assert.InDelta(t, 81.0, third.Value, 1e-9)
}

func TestTick_RawAboveDecayWins(t *testing.T) {
	b := NewBuffer(10, 0.9)

	b.Observe(models.SensorReading{TemperatureC: 30})
	assert.InDelta(t, 25.0, b.Tick(t0).Value, 1e-9)

	b.Observe(models.SensorReading{TemperatureC: 60})
	assert.InDelta(t, 50.0, b.Tick(t0.Add(time.Second)).Value, 1e-9)

	b.Observe(models.SensorReading{TemperatureC: 12})
	assert.InDelta(t, 45.0, b.Tick(t0.Add(2*time.Second)).Value, 1e-9)
}

func TestTick_EventAttachedOnce(t *testing.T) {
	b := NewBuffer(10, 0.9)

	b.Observe(models.SensorReading{ID: "danger-1", TemperatureC: 70, Status: models.SensorDanger})
	marked := b.Tick(t0)
	require.NotNil(t, marked.Event)
	assert.Equal(t, "danger-1", marked.Event.ReadingID)
	require.NotNil(t, marked.SensorData)
	assert.Equal(t, "danger-1", marked.SensorData.ID)

	for i := 1; i < 5; i++ {
		s := b.Tick(t0.Add(time.Duration(i) * time.Second))
		assert.Nil(t, s.Event)
		assert.Nil(t, s.SensorData)
	}

	events := 0
	for _, s := range b.Samples() {
		if s.Event != nil {
			events++
		}
	}
	assert.Equal(t, 1, events)
}

func TestTick_NonDangerHasNoEvent(t *testing.T) {
	b := NewBuffer(10, 0.9)
	b.Observe(models.SensorReading{ID: "w", TemperatureC: 50, Status: models.SensorWarning})
	assert.Nil(t, b.Tick(t0).Event)
}

func TestTick_BoundedCapacity(t *testing.T) {
	b := NewBuffer(5, 0.9)
	for i := 0; i < 12; i++ {
		b.Tick(t0.Add(time.Duration(i) * time.Second))
		assert.LessOrEqual(t, b.Len(), 5)
	}

	samples := b.Samples()
	require.Len(t, samples, 5)
	assert.Equal(t, t0.Add(7*time.Second), samples[0].Time)
	assert.Equal(t, t0.Add(11*time.Second), samples[4].Time)
}

func TestNewBuffer_Defaults(t *testing.T) {
	b := NewBuffer(0, 2)
	assert.Equal(t, DefaultCapacity, b.capacity)
	assert.Equal(t, DefaultDecay, b.decay)
}
