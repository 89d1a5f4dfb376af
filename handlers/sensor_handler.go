package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"sensor-anomaly-engine/analytics"
	"sensor-anomaly-engine/cache"
	"sensor-anomaly-engine/models"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	anomaliesDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anomalies_detected_total",
			Help: "Total number of anomalies detected",
		},
		[]string{"device_id", "channel"},
	)

	detectionDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "detection_duration_seconds",
			Help:    "Duration of a full detection pass over one reading batch",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// SensorHandler exposes the anomaly engine over HTTP.
type SensorHandler struct {
	engine      *analytics.Engine
	redisClient *cache.RedisClient
	logger      *logrus.Logger
}

func NewSensorHandler(engine *analytics.Engine, redisClient *cache.RedisClient, logger *logrus.Logger) *SensorHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &SensorHandler{
		engine:      engine,
		redisClient: redisClient,
		logger:      logger,
	}
}

// CountAnomaly is the engine callback that feeds the prometheus counter.
func CountAnomaly(event models.AnomalyEvent) {
	anomaliesDetectedTotal.WithLabelValues(event.DeviceID, string(event.Channel)).Inc()
}

// HandleReading ingests one reading batch and runs detection synchronously.
func (h *SensorHandler) HandleReading(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	defer func() {
		duration := time.Since(start).Seconds()
		requestDurationSeconds.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	}()

	var reading models.Reading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "400").Inc()
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}

	if err := reading.Validate(); err != nil {
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "400").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectStart := time.Now()
	outcome := h.engine.Detect(reading.DeviceID, reading.Channels(), reading.ObservedAt())
	detectionDurationSeconds.Observe(time.Since(detectStart).Seconds())

	// Cache is best-effort; detection results are already committed.
	if h.redisClient != nil {
		go func(deviceID string, out models.DetectionOutcome) {
			if err := h.redisClient.SaveOutcome(deviceID, out); err != nil {
				h.logger.WithError(err).WithField("device_id", deviceID).
					Warn("failed to cache detection outcome")
			}
		}(reading.DeviceID, outcome)
	}

	writeJSON(w, http.StatusOK, outcome)
	httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "200").Inc()
}

// HandleOutcome returns the latest cached outcome for a device.
func (h *SensorHandler) HandleOutcome(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("device_id")
	if deviceID == "" {
		http.Error(w, "device_id parameter is required", http.StatusBadRequest)
		return
	}
	if h.redisClient == nil {
		http.Error(w, "outcome cache is not configured", http.StatusServiceUnavailable)
		return
	}

	outcome, err := h.redisClient.GetOutcome(deviceID)
	if err != nil {
		http.Error(w, "Failed to get outcome: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

// HandleEvents lists a device's retained anomaly events, oldest first.
func (h *SensorHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("device_id")
	if deviceID == "" {
		http.Error(w, "device_id parameter is required", http.StatusBadRequest)
		return
	}

	from, to, err := parseTimeRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	events := h.engine.QueryEvents(deviceID, from, to)
	if events == nil {
		events = []models.AnomalyEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleAcknowledge marks an event acknowledged; idempotent.
func (h *SensorHandler) HandleAcknowledge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventID string `json:"event_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EventID == "" {
		http.Error(w, "event_id is required", http.StatusBadRequest)
		return
	}

	found := h.engine.Acknowledge(req.EventID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"event_id":     req.EventID,
		"acknowledged": found,
	})
}

// HandleStatistics aggregates retained events across all devices.
func (h *SensorHandler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseTimeRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Statistics(from, to))
}

// HandleSetConfig replaces the detector config for one channel.
func (h *SensorHandler) HandleSetConfig(w http.ResponseWriter, r *http.Request) {
	channel, err := models.ParseChannel(mux.Vars(r)["channel"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var cfg models.DetectorConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}

	if err := h.engine.Configure(channel, cfg); err != nil {
		if errors.Is(err, analytics.ErrInvalidConfig) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// HandleGetConfig reads back the active config for one channel.
func (h *SensorHandler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	channel, err := models.ParseChannel(mux.Vars(r)["channel"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cfg, ok := h.engine.ChannelConfig(channel)
	if !ok {
		http.Error(w, "channel is not configured", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// HandleClearDevice drops one device's buffers and events.
func (h *SensorHandler) HandleClearDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["device_id"]
	h.engine.ClearHistory(deviceID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared", "device_id": deviceID})
}

// HandleClearAll drops every device's buffers and events.
func (h *SensorHandler) HandleClearAll(w http.ResponseWriter, r *http.Request) {
	h.engine.ClearHistory("")
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func parseTimeRange(r *http.Request) (from, to time.Time, err error) {
	if s := r.URL.Query().Get("from"); s != "" {
		from, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return from, to, errors.New("invalid 'from' timestamp, expected RFC3339")
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		to, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return from, to, errors.New("invalid 'to' timestamp, expected RFC3339")
		}
	}
	return from, to, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
