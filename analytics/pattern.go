package analytics

import (
	"math"

	"sensor-anomaly-engine/models"
)

// minHistoricalWindows is the minimum number of past windows needed before
// nearest-neighbor ranking is meaningful.
const minHistoricalWindows = 5

// PatternMatcher extracts shape features from the trailing window and ranks
// its nearest-neighbor distance against the distances seen across the whole
// retained history. A window unlike anything observed before scores high.
type PatternMatcher struct{}

func (PatternMatcher) Name() string { return "pattern" }

type featureVector [7]float64

func (d PatternMatcher) Detect(buf *TimeSeriesBuffer, value float64, cfg models.DetectorConfig) *models.DetectorResult {
	w := cfg.WindowSize
	all := buf.Values()
	if len(all) < w {
		return nil
	}

	current := extractFeatures(all[len(all)-w:])

	// Historical windows slide over everything before the current window.
	past := all[:len(all)-w]
	if len(past) < w+minHistoricalWindows-1 {
		return nil
	}
	historical := make([]featureVector, 0, len(past)-w+1)
	for i := 0; i+w <= len(past); i++ {
		historical = append(historical, extractFeatures(past[i:i+w]))
	}
	if len(historical) < minHistoricalWindows {
		return nil
	}

	currentNN := math.Inf(1)
	for _, h := range historical {
		if dist := euclidean(current, h); dist < currentNN {
			currentNN = dist
		}
	}

	// A window indistinguishable from history carries no signal; ranking
	// it against a degenerate distance distribution would flag constant
	// series, so decline instead.
	if currentNN < epsilon {
		return nil
	}

	// Distribution of nearest-neighbor distances among the historical
	// windows themselves.
	var atOrBelow int
	for i := range historical {
		nn := math.Inf(1)
		for j := range historical {
			if i == j {
				continue
			}
			if dist := euclidean(historical[i], historical[j]); dist < nn {
				nn = dist
			}
		}
		if nn <= currentNN {
			atOrBelow++
		}
	}

	percentile := float64(atOrBelow) / float64(len(historical))
	threshold := 0.95 / cfg.Sensitivity

	return &models.DetectorResult{
		Algorithm:  d.Name(),
		RawScore:   percentile,
		Confidence: clamp(percentile/threshold-1, 0, 1),
		Flagged:    percentile > threshold,
		Details: map[string]float64{
			"nearest_distance": currentNN,
			"percentile":       percentile,
			"windows":          float64(len(historical)),
			"threshold":        threshold,
		},
	}
}

// extractFeatures summarizes a window as {mean, std, lag-1 autocorrelation,
// least-squares slope, min, max, range}.
func extractFeatures(window []float64) featureVector {
	mean, stdDev := meanStdDev(window)

	minV, maxV := window[0], window[0]
	for _, v := range window {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	var autocorr float64
	if stdDev > epsilon && len(window) > 1 {
		var num float64
		for i := 1; i < len(window); i++ {
			num += (window[i] - mean) * (window[i-1] - mean)
		}
		autocorr = num / (float64(len(window)) * stdDev * stdDev)
	}

	// Least-squares slope over x = 0..n-1.
	n := float64(len(window))
	var sumX, sumXX, sumXY float64
	for i, v := range window {
		x := float64(i)
		sumX += x
		sumXX += x * x
		sumXY += x * v
	}
	denom := n*sumXX - sumX*sumX
	var slope float64
	if math.Abs(denom) > epsilon {
		slope = (n*sumXY - sumX*(mean*n)) / denom
	}

	return featureVector{mean, stdDev, autocorr, slope, minV, maxV, maxV - minV}
}

func euclidean(a, b featureVector) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
