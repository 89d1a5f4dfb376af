package analytics

import (
	"math"

	"sensor-anomaly-engine/models"
)

// SeasonalDecomposer separates the series into trend, a repeating seasonal
// component and residual noise, then z-tests the new sample's residual.
// It only runs when a seasonal period is configured and at least two full
// cycles of history exist.
type SeasonalDecomposer struct{}

func (SeasonalDecomposer) Name() string { return "seasonal" }

func (d SeasonalDecomposer) Detect(buf *TimeSeriesBuffer, value float64, cfg models.DetectorConfig) *models.DetectorResult {
	period := cfg.SeasonalPeriod
	if period <= 1 {
		return nil
	}

	// History excludes the sample under test.
	all := buf.Values()
	if len(all) < 2*period+1 {
		return nil
	}
	history := all[:len(all)-1]

	trend, seasonal, residuals := decompose(history, period)
	if len(residuals) == 0 {
		return nil
	}

	phase := len(history) % period
	expected := trend[len(trend)-1] + seasonal[phase]
	residual := value - expected

	_, resStdDev := meanStdDev(residuals)
	z := math.Abs(residual) / (resStdDev + epsilon)
	threshold := 2.5 / cfg.Sensitivity

	return &models.DetectorResult{
		Algorithm:  d.Name(),
		RawScore:   clamp(z/10, 0, 1),
		Confidence: clamp(z/threshold-1, 0, 1),
		Flagged:    z > threshold,
		Details: map[string]float64{
			"residual":     residual,
			"expected":     expected,
			"residual_std": resStdDev,
			"phase":        float64(phase),
			"threshold":    threshold,
		},
	}
}

// decompose runs a classical additive decomposition: centered moving
// average of length period for the trend, per-phase mean of the detrended
// series for the seasonal component (mean-centered), and what remains as
// residuals. The trend is aligned with an explicit half-period offset so
// every detrended sample pairs with exactly one trend value.
func decompose(values []float64, period int) (trend []float64, seasonal []float64, residuals []float64) {
	n := len(values)
	half := period / 2
	if n < period {
		return nil, make([]float64, period), nil
	}

	// trend[j] corresponds to values[half+j].
	trend = make([]float64, 0, n-period+1)
	for i := half; i <= n-period+half; i++ {
		var sum float64
		for k := i - half; k < i-half+period; k++ {
			sum += values[k]
		}
		trend = append(trend, sum/float64(period))
	}

	phaseSums := make([]float64, period)
	phaseCounts := make([]int, period)
	for j, t := range trend {
		i := half + j
		p := i % period
		phaseSums[p] += values[i] - t
		phaseCounts[p]++
	}

	seasonal = make([]float64, period)
	var seasonalMean float64
	for p := 0; p < period; p++ {
		if phaseCounts[p] > 0 {
			seasonal[p] = phaseSums[p] / float64(phaseCounts[p])
		}
		seasonalMean += seasonal[p]
	}
	seasonalMean /= float64(period)
	for p := range seasonal {
		seasonal[p] -= seasonalMean
	}

	residuals = make([]float64, 0, len(trend))
	for j, t := range trend {
		i := half + j
		residuals = append(residuals, values[i]-t-seasonal[i%period])
	}
	return trend, seasonal, residuals
}
