package models

import (
	"fmt"
	"time"
)

// AnomalyEvent is one detected anomaly, retained per device for 7 days.
type AnomalyEvent struct {
	ID              string           `json:"id"`
	DeviceID        string           `json:"device_id"`
	Channel         SensorChannel    `json:"channel"`
	Value           float64          `json:"value"`
	FusedScore      float64          `json:"fused_score"` // [0,1]
	Severity        Severity         `json:"severity"`
	Timestamp       time.Time        `json:"timestamp"`
	Description     string           `json:"description"`
	Recommendations []string         `json:"recommendations"`
	Contributing    []DetectorResult `json:"contributing_results"`
	Acknowledged    bool             `json:"acknowledged"`
}

// EventID derives the deterministic event identity.
func EventID(deviceID string, channel SensorChannel, ts time.Time) string {
	return fmt.Sprintf("%s:%s:%d", deviceID, channel, ts.UnixNano())
}

// DetectionOutcome is what a single Detect call returns to the caller.
type DetectionOutcome struct {
	DeviceID    string         `json:"device_id"`
	IsAnomalous bool           `json:"is_anomalous"`
	Events      []AnomalyEvent `json:"events"`
	ProcessedAt time.Time      `json:"processed_at"`
}

// AnomalyStatistics aggregates the retained event logs across all devices.
type AnomalyStatistics struct {
	TotalAnomalies     int                   `json:"total_anomalies"`
	BySeverity         map[Severity]int      `json:"by_severity"`
	ByChannel          map[SensorChannel]int `json:"by_channel"`
	MeanFusedScore     float64               `json:"mean_fused_score"`
	MostAffectedSensor SensorChannel         `json:"most_affected_sensor_type"`
}
