package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensor-anomaly-engine/models"
)

func makeEvent(deviceID string, channel models.SensorChannel, severity models.Severity, score float64, ts time.Time) models.AnomalyEvent {
	return models.AnomalyEvent{
		ID:         models.EventID(deviceID, channel, ts),
		DeviceID:   deviceID,
		Channel:    channel,
		FusedScore: score,
		Severity:   severity,
		Timestamp:  ts,
	}
}

func TestEventStoreQueryOrdering(t *testing.T) {
	store := NewEventStore(DefaultRetention)
	now := time.Now()

	// Record out of order; query must come back oldest first.
	store.Record(makeEvent("dev-1", models.ChannelTemperature, models.SeverityHigh, 0.9, now))
	store.Record(makeEvent("dev-1", models.ChannelTemperature, models.SeverityLow, 0.5, now.Add(-2*time.Hour)))
	store.Record(makeEvent("dev-1", models.ChannelTemperature, models.SeverityMedium, 0.7, now.Add(-time.Hour)))

	events := store.Query("dev-1", time.Time{}, time.Time{})
	require.Len(t, events, 3)
	assert.True(t, events[0].Timestamp.Before(events[1].Timestamp))
	assert.True(t, events[1].Timestamp.Before(events[2].Timestamp))
}

func TestEventStoreQueryTimeRange(t *testing.T) {
	store := NewEventStore(DefaultRetention)
	now := time.Now()

	for i := 0; i < 5; i++ {
		store.Record(makeEvent("dev-1", models.ChannelHumidity, models.SeverityLow, 0.5,
			now.Add(-time.Duration(i)*time.Hour)))
	}

	events := store.Query("dev-1", now.Add(-150*time.Minute), now.Add(-30*time.Minute))
	assert.Len(t, events, 2)
}

func TestEventStoreQueryUnknownDevice(t *testing.T) {
	store := NewEventStore(DefaultRetention)
	assert.Empty(t, store.Query("nope", time.Time{}, time.Time{}))
}

func TestEventStoreAcknowledgeIdempotent(t *testing.T) {
	store := NewEventStore(DefaultRetention)
	event := makeEvent("dev-1", models.ChannelPH, models.SeverityHigh, 0.8, time.Now())
	store.Record(event)

	assert.True(t, store.Acknowledge(event.ID))
	first := store.Query("dev-1", time.Time{}, time.Time{})

	assert.True(t, store.Acknowledge(event.ID))
	second := store.Query("dev-1", time.Time{}, time.Time{})

	require.Len(t, first, 1)
	assert.True(t, first[0].Acknowledged)
	assert.Equal(t, first, second)
}

func TestEventStoreAcknowledgeUnknownID(t *testing.T) {
	store := NewEventStore(DefaultRetention)
	store.Record(makeEvent("dev-1", models.ChannelPH, models.SeverityHigh, 0.8, time.Now()))
	assert.False(t, store.Acknowledge("no-such-event"))
}

func TestEventStorePruneOnRecord(t *testing.T) {
	store := NewEventStore(DefaultRetention)
	now := time.Now()

	store.Record(makeEvent("dev-1", models.ChannelCO2, models.SeverityHigh, 0.8, now.Add(-8*24*time.Hour)))
	store.Record(makeEvent("dev-1", models.ChannelCO2, models.SeverityHigh, 0.8, now))

	events := store.Query("dev-1", time.Time{}, time.Time{})
	require.Len(t, events, 1)
	assert.Equal(t, now.UnixNano(), events[0].Timestamp.UnixNano())
}

func TestEventStoreExplicitPrune(t *testing.T) {
	store := NewEventStore(time.Hour)
	now := time.Now()

	store.Record(makeEvent("dev-1", models.ChannelEC, models.SeverityLow, 0.5, now.Add(-30*time.Minute)))
	store.Prune(now.Add(2 * time.Hour))

	assert.Empty(t, store.Query("dev-1", time.Time{}, time.Time{}))
}

func TestEventStoreStatistics(t *testing.T) {
	store := NewEventStore(DefaultRetention)
	now := time.Now()

	for i := 0; i < 3; i++ {
		store.Record(makeEvent(fmt.Sprintf("dev-%d", i), models.ChannelHumidity, models.SeverityCritical, 0.9,
			now.Add(-time.Duration(i)*time.Minute)))
	}
	for i := 0; i < 2; i++ {
		store.Record(makeEvent("dev-0", models.ChannelHumidity, models.SeverityMedium, 0.5,
			now.Add(-time.Duration(10+i)*time.Minute)))
	}
	store.Record(makeEvent("dev-1", models.ChannelTemperature, models.SeverityLow, 0.2, now.Add(-20*time.Minute)))

	stats := store.Statistics(time.Time{}, time.Time{})
	assert.Equal(t, 6, stats.TotalAnomalies)
	assert.Equal(t, 3, stats.BySeverity[models.SeverityCritical])
	assert.Equal(t, 2, stats.BySeverity[models.SeverityMedium])
	assert.Equal(t, 1, stats.BySeverity[models.SeverityLow])
	assert.Equal(t, 5, stats.ByChannel[models.ChannelHumidity])
	assert.Equal(t, models.ChannelHumidity, stats.MostAffectedSensor)
	assert.InDelta(t, (0.9*3+0.5*2+0.2)/6, stats.MeanFusedScore, 1e-9)
}

func TestEventStoreStatisticsEmpty(t *testing.T) {
	store := NewEventStore(DefaultRetention)
	stats := store.Statistics(time.Time{}, time.Time{})
	assert.Zero(t, stats.TotalAnomalies)
	assert.Zero(t, stats.MeanFusedScore)
}

func TestEventStoreClear(t *testing.T) {
	store := NewEventStore(DefaultRetention)
	now := time.Now()
	store.Record(makeEvent("dev-1", models.ChannelLight, models.SeverityHigh, 0.8, now))
	store.Record(makeEvent("dev-2", models.ChannelLight, models.SeverityHigh, 0.8, now))

	store.Clear("dev-1")
	assert.Empty(t, store.Query("dev-1", time.Time{}, time.Time{}))
	assert.Len(t, store.Query("dev-2", time.Time{}, time.Time{}), 1)

	store.ClearAll()
	assert.Empty(t, store.Query("dev-2", time.Time{}, time.Time{}))
}
