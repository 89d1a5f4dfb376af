package analytics

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"sensor-anomaly-engine/models"
)

// ErrInvalidConfig rejects detector configs that fail validation; the prior
// config for the channel is retained.
var ErrInvalidConfig = errors.New("invalid detector config")

// AnomalyCallback is invoked once per newly recorded anomaly event.
type AnomalyCallback func(event models.AnomalyEvent)

// detector is one of the four per-channel algorithms. A nil result means
// the algorithm could not run this cycle (insufficient data, zero variance)
// and is excluded from fusion.
type detector interface {
	Name() string
	Detect(buf *TimeSeriesBuffer, value float64, cfg models.DetectorConfig) *models.DetectorResult
}

// Engine owns all per-device detection state: sample buffers, channel
// configs and the retained event log. Construct one per process and share
// it by reference; there are no package-level globals.
type Engine struct {
	mu      sync.RWMutex
	devices map[string]*deviceState

	cfgMu   sync.RWMutex
	configs map[models.SensorChannel]models.DetectorConfig

	store     *EventStore
	detectors []detector
	bufferCap int
	logger    *logrus.Logger
	onAnomaly AnomalyCallback
}

type deviceState struct {
	mu      sync.Mutex
	buffers map[models.SensorChannel]*TimeSeriesBuffer
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithBufferCapacity overrides the per-channel sample buffer capacity.
func WithBufferCapacity(capacity int) Option {
	return func(e *Engine) { e.bufferCap = capacity }
}

// WithRetention overrides the event retention window.
func WithRetention(retention time.Duration) Option {
	return func(e *Engine) { e.store = NewEventStore(retention) }
}

// WithAnomalyCallback registers a hook fired for every new event.
func WithAnomalyCallback(cb AnomalyCallback) Option {
	return func(e *Engine) { e.onAnomaly = cb }
}

// NewEngine builds an engine with default configs for every channel.
func NewEngine(logger *logrus.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	e := &Engine{
		devices:   make(map[string]*deviceState),
		configs:   make(map[models.SensorChannel]models.DetectorConfig),
		store:     NewEventStore(DefaultRetention),
		bufferCap: DefaultBufferCapacity,
		logger:    logger,
		detectors: []detector{
			StatisticalDetector{},
			SeasonalDecomposer{},
			PatternMatcher{},
			ChangePointDetector{},
		},
	}
	for _, c := range models.AllChannels {
		e.configs[c] = models.DefaultDetectorConfig()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Configure replaces the detector config for a channel. Invalid configs are
// rejected and the previous config stays in effect.
func (e *Engine) Configure(channel models.SensorChannel, cfg models.DetectorConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	e.cfgMu.Lock()
	e.configs[channel] = cfg
	e.cfgMu.Unlock()
	return nil
}

// ChannelConfig returns the active config for a channel.
func (e *Engine) ChannelConfig(channel models.SensorChannel) (models.DetectorConfig, bool) {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	cfg, ok := e.configs[channel]
	return cfg, ok
}

func (e *Engine) deviceFor(deviceID string) *deviceState {
	e.mu.RLock()
	ds, ok := e.devices[deviceID]
	e.mu.RUnlock()
	if ok {
		return ds
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if ds, ok = e.devices[deviceID]; ok {
		return ds
	}
	ds = &deviceState{buffers: make(map[models.SensorChannel]*TimeSeriesBuffer)}
	e.devices[deviceID] = ds
	return ds
}

// Detect ingests one batch of channel readings for a device and runs the
// full detection pipeline. It is synchronous and performs no I/O; the
// device lock is held for the whole call so the four detectors read a
// stable buffer snapshot. Different devices detect concurrently.
func (e *Engine) Detect(deviceID string, readings map[models.SensorChannel]float64, at time.Time) models.DetectionOutcome {
	outcome := models.DetectionOutcome{DeviceID: deviceID, ProcessedAt: at}
	if len(readings) == 0 {
		return outcome
	}

	ds := e.deviceFor(deviceID)
	ds.mu.Lock()
	defer ds.mu.Unlock()

	for channel, value := range readings {
		buf, ok := ds.buffers[channel]
		if !ok {
			buf = NewTimeSeriesBuffer(e.bufferCap)
			ds.buffers[channel] = buf
		}
		buf.Append(value, at)

		cfg, configured := e.ChannelConfig(channel)
		if !configured {
			continue
		}

		results := e.runDetectors(buf, value, cfg)
		if len(results) == 0 {
			e.logger.WithFields(logrus.Fields{
				"device_id": deviceID,
				"channel":   channel,
			}).Debug("no detector produced a result, skipping channel")
			continue
		}

		fused := fuseScores(results)
		if adjustedScore(fused, cfg.Sensitivity) <= anomalyDecisionThreshold {
			continue
		}

		severity := classifySeverity(fused)
		event := models.AnomalyEvent{
			ID:              models.EventID(deviceID, channel, at),
			DeviceID:        deviceID,
			Channel:         channel,
			Value:           value,
			FusedScore:      fused,
			Severity:        severity,
			Timestamp:       at,
			Description:     describeEvent(severity, channel, value, results),
			Recommendations: recommendationsFor(channel),
			Contributing:    results,
		}
		e.store.Record(event)
		outcome.Events = append(outcome.Events, event)

		e.logger.WithFields(logrus.Fields{
			"device_id":   deviceID,
			"channel":     channel,
			"value":       value,
			"fused_score": fused,
			"severity":    severity,
		}).Warn("anomaly detected")

		if e.onAnomaly != nil {
			e.onAnomaly(event)
		}
	}

	outcome.IsAnomalous = len(outcome.Events) > 0
	return outcome
}

// runDetectors executes the four algorithms concurrently against the same
// buffer snapshot and collects their results in a fixed order.
func (e *Engine) runDetectors(buf *TimeSeriesBuffer, value float64, cfg models.DetectorConfig) []models.DetectorResult {
	slots := make([]*models.DetectorResult, len(e.detectors))
	var wg sync.WaitGroup
	for i, d := range e.detectors {
		wg.Add(1)
		go func(i int, d detector) {
			defer wg.Done()
			slots[i] = d.Detect(buf, value, cfg)
		}(i, d)
	}
	wg.Wait()

	results := make([]models.DetectorResult, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results
}

// QueryEvents returns a device's retained events within the range, oldest
// first. Unknown devices return an empty list.
func (e *Engine) QueryEvents(deviceID string, from, to time.Time) []models.AnomalyEvent {
	return e.store.Query(deviceID, from, to)
}

// Acknowledge marks an event acknowledged; idempotent, unknown ids no-op.
func (e *Engine) Acknowledge(eventID string) bool {
	return e.store.Acknowledge(eventID)
}

// Statistics aggregates retained events across all devices.
func (e *Engine) Statistics(from, to time.Time) models.AnomalyStatistics {
	return e.store.Statistics(from, to)
}

// ClearHistory drops a device's sample buffers and retained events.
// An empty deviceID clears every device.
func (e *Engine) ClearHistory(deviceID string) {
	if deviceID == "" {
		e.mu.Lock()
		e.devices = make(map[string]*deviceState)
		e.mu.Unlock()
		e.store.ClearAll()
		return
	}

	e.mu.Lock()
	delete(e.devices, deviceID)
	e.mu.Unlock()
	e.store.Clear(deviceID)
}
