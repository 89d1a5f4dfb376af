package analytics

import (
	"sort"
	"sync"
	"time"

	"sensor-anomaly-engine/models"
)

// DefaultRetention is how long anomaly events are kept per device.
const DefaultRetention = 7 * 24 * time.Hour

// EventStore keeps the retained anomaly log per device. Each device log is
// independent; mutations on one device never block another.
type EventStore struct {
	mu        sync.RWMutex
	devices   map[string]*deviceLog
	order     []string // device insertion order, for deterministic stats
	retention time.Duration
}

type deviceLog struct {
	mu     sync.Mutex
	events []models.AnomalyEvent // ordered by timestamp, most-recent-last
}

func NewEventStore(retention time.Duration) *EventStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &EventStore{
		devices:   make(map[string]*deviceLog),
		retention: retention,
	}
}

func (s *EventStore) logFor(deviceID string, create bool) *deviceLog {
	s.mu.RLock()
	dl, ok := s.devices[deviceID]
	s.mu.RUnlock()
	if ok || !create {
		return dl
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if dl, ok = s.devices[deviceID]; ok {
		return dl
	}
	dl = &deviceLog{}
	s.devices[deviceID] = dl
	s.order = append(s.order, deviceID)
	return dl
}

// Record appends an event to its device log and prunes expired entries.
func (s *EventStore) Record(event models.AnomalyEvent) {
	dl := s.logFor(event.DeviceID, true)
	dl.mu.Lock()
	defer dl.mu.Unlock()

	dl.events = append(dl.events, event)
	sort.SliceStable(dl.events, func(i, j int) bool {
		return dl.events[i].Timestamp.Before(dl.events[j].Timestamp)
	})
	dl.pruneLocked(time.Now(), s.retention)
}

// Prune drops events older than the retention window from every device.
func (s *EventStore) Prune(now time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, dl := range s.devices {
		dl.mu.Lock()
		dl.pruneLocked(now, s.retention)
		dl.mu.Unlock()
	}
}

func (dl *deviceLog) pruneLocked(now time.Time, retention time.Duration) {
	cutoff := now.Add(-retention)
	i := 0
	for i < len(dl.events) && dl.events[i].Timestamp.Before(cutoff) {
		i++
	}
	if i > 0 {
		dl.events = append([]models.AnomalyEvent(nil), dl.events[i:]...)
	}
}

// Acknowledge marks an event acknowledged. Idempotent; unknown ids are a
// no-op, reported via the return value.
func (s *EventStore) Acknowledge(eventID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, dl := range s.devices {
		dl.mu.Lock()
		for i := range dl.events {
			if dl.events[i].ID == eventID {
				dl.events[i].Acknowledged = true
				dl.mu.Unlock()
				return true
			}
		}
		dl.mu.Unlock()
	}
	return false
}

// Query returns a device's events within [from, to], oldest first. Zero
// bounds are open. Unknown devices yield an empty slice.
func (s *EventStore) Query(deviceID string, from, to time.Time) []models.AnomalyEvent {
	dl := s.logFor(deviceID, false)
	if dl == nil {
		return nil
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()

	out := make([]models.AnomalyEvent, 0, len(dl.events))
	for _, e := range dl.events {
		if !from.IsZero() && e.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && e.Timestamp.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Statistics aggregates retained events across all devices within the
// optional time range.
func (s *EventStore) Statistics(from, to time.Time) models.AnomalyStatistics {
	stats := models.AnomalyStatistics{
		BySeverity: make(map[models.Severity]int),
		ByChannel:  make(map[models.SensorChannel]int),
	}

	s.mu.RLock()
	order := append([]string(nil), s.order...)
	s.mu.RUnlock()

	var scoreSum float64
	var channelOrder []models.SensorChannel
	for _, deviceID := range order {
		for _, e := range s.Query(deviceID, from, to) {
			stats.TotalAnomalies++
			stats.BySeverity[e.Severity]++
			if stats.ByChannel[e.Channel] == 0 {
				channelOrder = append(channelOrder, e.Channel)
			}
			stats.ByChannel[e.Channel]++
			scoreSum += e.FusedScore
		}
	}

	if stats.TotalAnomalies > 0 {
		stats.MeanFusedScore = scoreSum / float64(stats.TotalAnomalies)
	}

	// Most-affected channel; ties go to the channel seen first.
	best := -1
	for _, c := range channelOrder {
		if stats.ByChannel[c] > best {
			best = stats.ByChannel[c]
			stats.MostAffectedSensor = c
		}
	}
	return stats
}

// Clear drops the retained events for one device.
func (s *EventStore) Clear(deviceID string) {
	dl := s.logFor(deviceID, false)
	if dl == nil {
		return
	}
	dl.mu.Lock()
	dl.events = nil
	dl.mu.Unlock()
}

// ClearAll drops every device's retained events.
func (s *EventStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = make(map[string]*deviceLog)
	s.order = nil
}
