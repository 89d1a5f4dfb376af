package analytics

import (
	"math"

	"sensor-anomaly-engine/models"
)

// ChangePointDetector runs a CUSUM mean-shift test: the trailing
// 2×window_size samples split into a baseline half and a recent half, and
// one-sided cumulative sums of the recent half's deviation from the
// baseline mean accumulate until they cross the threshold. Both an upper
// and a lower accumulator run so shifts in either direction are caught.
type ChangePointDetector struct{}

func (ChangePointDetector) Name() string { return "changepoint" }

func (d ChangePointDetector) Detect(buf *TimeSeriesBuffer, value float64, cfg models.DetectorConfig) *models.DetectorResult {
	w := cfg.WindowSize
	window, err := buf.Window(2 * w)
	if err != nil {
		return nil
	}
	values := valuesOf(window)
	baseline := values[:w]
	recent := values[w:]

	baselineMean, _ := meanStdDev(baseline)
	recentMean, _ := meanStdDev(recent)

	// Reset-on-negative CUSUM: S[t] = max(0, S[t-1] + dev).
	var high, low float64
	for _, v := range recent {
		high = math.Max(0, high+(v-baselineMean))
		low = math.Max(0, low+(baselineMean-v))
	}
	cusum := math.Max(high, low)

	score := cusum / (float64(w)*math.Abs(baselineMean) + epsilon)
	threshold := 2.0 / cfg.Sensitivity

	return &models.DetectorResult{
		Algorithm:  d.Name(),
		RawScore:   clamp(score/10, 0, 1),
		Confidence: clamp(score/threshold-1, 0, 1),
		Flagged:    math.Abs(score) > threshold,
		Details: map[string]float64{
			"cusum":         cusum,
			"cusum_score":   score,
			"baseline_mean": baselineMean,
			"recent_mean":   recentMean,
			"threshold":     threshold,
		},
	}
}
