package analytics

import (
	"math"

	"sensor-anomaly-engine/models"
)

const epsilon = 1e-8

// StatisticalDetector flags values whose z-score against the trailing
// window exceeds 3σ scaled by sensitivity.
type StatisticalDetector struct{}

func (StatisticalDetector) Name() string { return "statistical" }

// Detect computes the z-score of value against the window of samples that
// preceded it. Returns nil when there is not enough history or the window
// has (near) zero variance.
func (d StatisticalDetector) Detect(buf *TimeSeriesBuffer, value float64, cfg models.DetectorConfig) *models.DetectorResult {
	// The newest sample is the value under test; exclude it from the stats.
	window, err := buf.Window(cfg.WindowSize + 1)
	if err != nil {
		return nil
	}
	history := window[:len(window)-1]

	mean, stdDev := meanStdDev(valuesOf(history))
	if stdDev < epsilon {
		return nil
	}

	z := math.Abs(value-mean) / stdDev
	threshold := 3.0 / cfg.Sensitivity

	return &models.DetectorResult{
		Algorithm:  d.Name(),
		RawScore:   clamp(z/10, 0, 1),
		Confidence: clamp(z/threshold-1, 0, 1),
		Flagged:    z > threshold,
		Details: map[string]float64{
			"z_score":   z,
			"mean":      mean,
			"std_dev":   stdDev,
			"threshold": threshold,
		},
	}
}

func valuesOf(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Value
	}
	return out
}

func meanStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
