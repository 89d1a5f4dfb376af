package models

import "fmt"

// SensorChannel identifies a single physical quantity reported by a device.
type SensorChannel string

const (
	ChannelTemperature  SensorChannel = "temperature"
	ChannelHumidity     SensorChannel = "humidity"
	ChannelPH           SensorChannel = "ph"
	ChannelEC           SensorChannel = "ec"
	ChannelCO2          SensorChannel = "co2"
	ChannelVPD          SensorChannel = "vpd"
	ChannelLight        SensorChannel = "light"
	ChannelSoilMoisture SensorChannel = "soil_moisture"
	ChannelWaterLevel   SensorChannel = "water_level"
	ChannelAirPressure  SensorChannel = "air_pressure"
	ChannelWindSpeed    SensorChannel = "wind_speed"
)

// AllChannels lists every supported channel in a fixed order.
var AllChannels = []SensorChannel{
	ChannelTemperature,
	ChannelHumidity,
	ChannelPH,
	ChannelEC,
	ChannelCO2,
	ChannelVPD,
	ChannelLight,
	ChannelSoilMoisture,
	ChannelWaterLevel,
	ChannelAirPressure,
	ChannelWindSpeed,
}

func (c SensorChannel) String() string {
	return string(c)
}

// ParseChannel converts a wire string into a SensorChannel.
func ParseChannel(s string) (SensorChannel, error) {
	for _, c := range AllChannels {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown sensor channel %q", s)
}
