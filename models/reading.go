package models

import (
	"errors"
	"time"
)

// Reading is one ingest payload: a batch of optional channel values from a
// single device. Absent channels are simply skipped downstream.
type Reading struct {
	Timestamp    string   `json:"timestamp"`
	DeviceID     string   `json:"device_id"`
	Temperature  *float64 `json:"temperature,omitempty"`
	Humidity     *float64 `json:"humidity,omitempty"`
	PH           *float64 `json:"ph,omitempty"`
	EC           *float64 `json:"ec,omitempty"`
	CO2          *float64 `json:"co2,omitempty"`
	VPD          *float64 `json:"vpd,omitempty"`
	Light        *float64 `json:"light,omitempty"`
	SoilMoisture *float64 `json:"soil_moisture,omitempty"`
	WaterLevel   *float64 `json:"water_level,omitempty"`
	AirPressure  *float64 `json:"air_pressure,omitempty"`
	WindSpeed    *float64 `json:"wind_speed,omitempty"`
}

func (r *Reading) Validate() error {
	if r.DeviceID == "" {
		return errors.New("device_id is required")
	}

	if r.Timestamp == "" {
		return errors.New("timestamp is required")
	}

	if _, err := time.Parse(time.RFC3339, r.Timestamp); err != nil {
		return errors.New("invalid timestamp format, expected RFC3339")
	}

	if len(r.Channels()) == 0 {
		return errors.New("at least one channel value is required")
	}

	return nil
}

// ObservedAt parses the reading timestamp, falling back to now.
func (r *Reading) ObservedAt() time.Time {
	t, err := time.Parse(time.RFC3339, r.Timestamp)
	if err != nil {
		return time.Now()
	}
	return t
}

// Channels flattens the payload into channel -> value, dropping absent fields.
func (r *Reading) Channels() map[SensorChannel]float64 {
	out := make(map[SensorChannel]float64)
	set := func(c SensorChannel, v *float64) {
		if v != nil {
			out[c] = *v
		}
	}
	set(ChannelTemperature, r.Temperature)
	set(ChannelHumidity, r.Humidity)
	set(ChannelPH, r.PH)
	set(ChannelEC, r.EC)
	set(ChannelCO2, r.CO2)
	set(ChannelVPD, r.VPD)
	set(ChannelLight, r.Light)
	set(ChannelSoilMoisture, r.SoilMoisture)
	set(ChannelWaterLevel, r.WaterLevel)
	set(ChannelAirPressure, r.AirPressure)
	set(ChannelWindSpeed, r.WindSpeed)
	return out
}
