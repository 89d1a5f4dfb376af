package models

import "fmt"

// DetectorConfig tunes all four detection algorithms for one channel.
type DetectorConfig struct {
	// Sensitivity in (0, 1]; higher sensitivity lowers detection thresholds.
	Sensitivity float64 `json:"sensitivity" mapstructure:"sensitivity"`
	// WindowSize is the number of trailing samples each detector looks at.
	WindowSize int `json:"window_size" mapstructure:"window_size"`
	// SeasonalPeriod is the cycle length for seasonal decomposition;
	// 0 disables the seasonal detector for this channel.
	SeasonalPeriod int `json:"seasonal_period" mapstructure:"seasonal_period"`
}

func (c DetectorConfig) Validate() error {
	if c.Sensitivity <= 0 || c.Sensitivity > 1 {
		return fmt.Errorf("sensitivity must be in (0,1], got %g", c.Sensitivity)
	}
	if c.WindowSize < 10 {
		return fmt.Errorf("window_size must be >= 10, got %d", c.WindowSize)
	}
	if c.SeasonalPeriod < 0 {
		return fmt.Errorf("seasonal_period must be >= 0, got %d", c.SeasonalPeriod)
	}
	return nil
}

// DefaultDetectorConfig is used for channels without an explicit config.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		Sensitivity:    1.0,
		WindowSize:     20,
		SeasonalPeriod: 0,
	}
}

// DetectorResult is the output of a single algorithm for one detection call.
type DetectorResult struct {
	Algorithm  string             `json:"algorithm"`
	RawScore   float64            `json:"raw_score"`  // [0,1]
	Confidence float64            `json:"confidence"` // [0,1], 0 below threshold
	Flagged    bool               `json:"flagged"`
	Details    map[string]float64 `json:"details,omitempty"`
}

// Severity tiers for fused anomaly scores.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)
