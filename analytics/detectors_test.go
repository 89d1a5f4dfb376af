package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensor-anomaly-engine/models"
)

func fillBuffer(values []float64) *TimeSeriesBuffer {
	buf := NewTimeSeriesBuffer(DefaultBufferCapacity)
	base := time.Now().Add(-time.Duration(len(values)) * time.Minute)
	for i, v := range values {
		buf.Append(v, base.Add(time.Duration(i)*time.Minute))
	}
	return buf
}

// alternating produces a stable series oscillating mean±amplitude, giving a
// known nonzero standard deviation.
func alternating(n int, mean, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = mean + amplitude
		} else {
			out[i] = mean - amplitude
		}
	}
	return out
}

func TestStatisticalDetectorFlagsSpike(t *testing.T) {
	cfg := models.DetectorConfig{Sensitivity: 1.0, WindowSize: 20}

	series := alternating(40, 20, 0.5) // mean 20, stddev 0.5
	spike := 25.0                      // 10 standard deviations above mean
	buf := fillBuffer(append(series, spike))

	result := StatisticalDetector{}.Detect(buf, spike, cfg)
	require.NotNil(t, result)
	assert.True(t, result.Flagged)
	assert.InDelta(t, 10.0, result.Details["z_score"], 1e-9)
	assert.Equal(t, 1.0, result.RawScore)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestStatisticalDetectorZeroVariance(t *testing.T) {
	cfg := models.DetectorConfig{Sensitivity: 1.0, WindowSize: 20}

	values := make([]float64, 41)
	for i := range values {
		values[i] = 22.0
	}
	buf := fillBuffer(values)

	assert.Nil(t, StatisticalDetector{}.Detect(buf, 22.0, cfg))
}

func TestStatisticalDetectorInsufficientData(t *testing.T) {
	cfg := models.DetectorConfig{Sensitivity: 1.0, WindowSize: 20}
	buf := fillBuffer(alternating(10, 20, 0.5))
	assert.Nil(t, StatisticalDetector{}.Detect(buf, 20.0, cfg))
}

func TestStatisticalDetectorSensitivityScalesThreshold(t *testing.T) {
	series := alternating(40, 20, 0.5)
	value := 22.0 // z = 4
	buf := fillBuffer(append(series, value))

	loose := models.DetectorConfig{Sensitivity: 0.5, WindowSize: 20} // threshold 6
	result := StatisticalDetector{}.Detect(buf, value, loose)
	require.NotNil(t, result)
	assert.False(t, result.Flagged)

	tight := models.DetectorConfig{Sensitivity: 1.0, WindowSize: 20} // threshold 3
	result = StatisticalDetector{}.Detect(buf, value, tight)
	require.NotNil(t, result)
	assert.True(t, result.Flagged)
}

func seasonalSeries(n, period int, level, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = level + amplitude*math.Sin(2*math.Pi*float64(i%period)/float64(period))
	}
	return out
}

func TestSeasonalDecomposerFlagsOffPatternValue(t *testing.T) {
	const period = 12
	cfg := models.DetectorConfig{Sensitivity: 1.0, WindowSize: 10, SeasonalPeriod: period}

	series := seasonalSeries(48, period, 10, 5)
	// Phase 0 expects ~10; inject far off the seasonal pattern.
	anomalous := 25.0
	buf := fillBuffer(append(series, anomalous))

	result := SeasonalDecomposer{}.Detect(buf, anomalous, cfg)
	require.NotNil(t, result)
	assert.True(t, result.Flagged)
	assert.Greater(t, result.Confidence, 0.5)
}

func TestSeasonalDecomposerAcceptsOnPatternValue(t *testing.T) {
	const period = 12
	cfg := models.DetectorConfig{Sensitivity: 1.0, WindowSize: 10, SeasonalPeriod: period}

	series := seasonalSeries(49, period, 10, 5)
	onPattern := series[48]
	buf := fillBuffer(series)

	result := SeasonalDecomposer{}.Detect(buf, onPattern, cfg)
	require.NotNil(t, result)
	assert.False(t, result.Flagged)
}

func TestSeasonalDecomposerDisabledWithoutPeriod(t *testing.T) {
	cfg := models.DetectorConfig{Sensitivity: 1.0, WindowSize: 10, SeasonalPeriod: 0}
	buf := fillBuffer(seasonalSeries(48, 12, 10, 5))
	assert.Nil(t, SeasonalDecomposer{}.Detect(buf, 10.0, cfg))
}

func TestSeasonalDecomposerNeedsTwoCycles(t *testing.T) {
	cfg := models.DetectorConfig{Sensitivity: 1.0, WindowSize: 10, SeasonalPeriod: 12}
	buf := fillBuffer(seasonalSeries(20, 12, 10, 5))
	assert.Nil(t, SeasonalDecomposer{}.Detect(buf, 10.0, cfg))
}

func TestChangePointDetectorFlagsMeanShift(t *testing.T) {
	cfg := models.DetectorConfig{Sensitivity: 1.0, WindowSize: 10}

	values := make([]float64, 20)
	for i := 0; i < 10; i++ {
		values[i] = 1.0
	}
	for i := 10; i < 20; i++ {
		values[i] = 4.0 // sustained shift: cusum 30, score 3.0 > 2.0
	}
	buf := fillBuffer(values)

	result := ChangePointDetector{}.Detect(buf, 4.0, cfg)
	require.NotNil(t, result)
	assert.True(t, result.Flagged)
	assert.InDelta(t, 3.0, result.Details["cusum_score"], 1e-6)
}

func TestChangePointDetectorStableSeries(t *testing.T) {
	cfg := models.DetectorConfig{Sensitivity: 1.0, WindowSize: 10}

	values := make([]float64, 20)
	for i := range values {
		values[i] = 5.0
	}
	buf := fillBuffer(values)

	result := ChangePointDetector{}.Detect(buf, 5.0, cfg)
	require.NotNil(t, result)
	assert.False(t, result.Flagged)
	assert.Zero(t, result.Confidence)
}

func TestChangePointDetectorDownwardShift(t *testing.T) {
	cfg := models.DetectorConfig{Sensitivity: 1.0, WindowSize: 10}

	// The cusum normalizes by |baseline_mean|, so a drop must be large
	// relative to the baseline level to cross the threshold: here cusum
	// is 30 and the score 30/(10*1) = 3.0 > 2.0. The same 3-unit drop
	// from a baseline of 4.0 would only score 0.75.
	values := make([]float64, 20)
	for i := 0; i < 10; i++ {
		values[i] = 1.0
	}
	for i := 10; i < 20; i++ {
		values[i] = -2.0
	}
	buf := fillBuffer(values)

	result := ChangePointDetector{}.Detect(buf, -2.0, cfg)
	require.NotNil(t, result)
	assert.True(t, result.Flagged)
	assert.InDelta(t, 3.0, result.Details["cusum_score"], 1e-6)
}

func TestChangePointDetectorInsufficientData(t *testing.T) {
	cfg := models.DetectorConfig{Sensitivity: 1.0, WindowSize: 10}
	buf := fillBuffer(alternating(15, 5, 0.5))
	assert.Nil(t, ChangePointDetector{}.Detect(buf, 5.0, cfg))
}

func TestPatternMatcherFlagsNovelWindow(t *testing.T) {
	cfg := models.DetectorConfig{Sensitivity: 1.0, WindowSize: 10}

	series := seasonalSeries(60, 12, 10, 5)
	// Current window ends in an extreme excursion unlike anything in history.
	series = append(series, 500, 510, 490, 505, 495, 500, 508, 492, 503, 500)
	buf := fillBuffer(series)

	result := PatternMatcher{}.Detect(buf, 500, cfg)
	require.NotNil(t, result)
	assert.True(t, result.Flagged)
	assert.Equal(t, 1.0, result.RawScore)
}

func TestPatternMatcherConstantSeriesDeclines(t *testing.T) {
	cfg := models.DetectorConfig{Sensitivity: 1.0, WindowSize: 10}

	values := make([]float64, 60)
	for i := range values {
		values[i] = 7.0
	}
	buf := fillBuffer(values)

	assert.Nil(t, PatternMatcher{}.Detect(buf, 7.0, cfg))
}

func TestPatternMatcherNeedsHistory(t *testing.T) {
	cfg := models.DetectorConfig{Sensitivity: 1.0, WindowSize: 10}
	buf := fillBuffer(seasonalSeries(15, 12, 10, 5))
	assert.Nil(t, PatternMatcher{}.Detect(buf, 10.0, cfg))
}
