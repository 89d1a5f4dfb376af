package analytics

import (
	"fmt"
	"strings"

	"sensor-anomaly-engine/models"
)

// Fusion weights per algorithm. Missing algorithms are simply excluded;
// the weights are not renormalized, which biases fused scores downward
// when fewer detectors produce a result.
var fusionWeights = map[string]float64{
	"statistical": 0.30,
	"seasonal":    0.25,
	"pattern":     0.25,
	"changepoint": 0.20,
}

// anomalyDecisionThreshold gates the sensitivity-adjusted score.
const anomalyDecisionThreshold = 0.5

// fuseScores combines the detector outputs that ran this cycle into a
// single [0,1] score. Each term is raw×confidence×weight, normalized by
// the confidence-weighted mass actually present.
func fuseScores(results []models.DetectorResult) float64 {
	var numerator, denominator float64
	for _, r := range results {
		w := fusionWeights[r.Algorithm]
		numerator += r.RawScore * r.Confidence * w
		denominator += w * r.Confidence
	}
	if denominator < epsilon {
		return 0
	}
	return clamp(numerator/denominator, 0, 1)
}

// adjustedScore applies the per-channel sensitivity offset. The anomaly
// decision is made on this value; severity is classified on the raw fused
// score.
func adjustedScore(fused, sensitivity float64) float64 {
	return clamp(fused-0.3/sensitivity, 0, 1)
}

func classifySeverity(fused float64) models.Severity {
	switch {
	case fused >= 0.8:
		return models.SeverityCritical
	case fused >= 0.6:
		return models.SeverityHigh
	case fused >= 0.4:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// recommendations maps each channel to operator guidance attached to events.
var recommendations = map[models.SensorChannel][]string{
	models.ChannelTemperature:  {"check HVAC system", "verify temperature sensor placement"},
	models.ChannelHumidity:     {"check humidifier/dehumidifier", "inspect ventilation airflow"},
	models.ChannelPH:           {"calibrate pH probe", "check nutrient dosing pump"},
	models.ChannelEC:           {"check nutrient concentration", "flush and remix reservoir"},
	models.ChannelCO2:          {"inspect CO2 regulator", "check room seals and exhaust timing"},
	models.ChannelVPD:          {"rebalance temperature and humidity targets"},
	models.ChannelLight:        {"check light fixtures and timers", "verify light sensor is unobstructed"},
	models.ChannelSoilMoisture: {"check irrigation schedule", "inspect drip lines for clogs"},
	models.ChannelWaterLevel:   {"check reservoir fill valve", "inspect for leaks"},
	models.ChannelAirPressure:  {"verify barometric sensor", "check room pressurization"},
	models.ChannelWindSpeed:    {"check circulation fans", "verify anemometer mounting"},
}

func recommendationsFor(channel models.SensorChannel) []string {
	recs := recommendations[channel]
	out := make([]string, len(recs))
	copy(out, recs)
	return out
}

func describeEvent(severity models.Severity, channel models.SensorChannel, value float64, results []models.DetectorResult) string {
	names := make([]string, 0, len(results))
	for _, r := range results {
		if r.Flagged {
			names = append(names, r.Algorithm)
		}
	}
	if len(names) == 0 {
		for _, r := range results {
			names = append(names, r.Algorithm)
		}
	}
	return fmt.Sprintf("%s anomaly on %s: value %.2f flagged by %s",
		severity, channel, value, strings.Join(names, ", "))
}
