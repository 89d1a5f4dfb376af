package config

import (
	"fmt"

	"github.com/spf13/viper"

	"sensor-anomaly-engine/models"
)

// Config is the full service configuration, loadable from config.yaml with
// environment-variable overrides.
type Config struct {
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
	Redis struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"redis"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Engine struct {
		BufferCapacity int `mapstructure:"buffer_capacity"`
	} `mapstructure:"engine"`
	// Channels maps channel name -> detector config override.
	Channels map[string]models.DetectorConfig `mapstructure:"channels"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.SetEnvPrefix("ANOMALY")
	v.AutomaticEnv()

	setDefaults(v)

	// A missing config file is fine; defaults and env vars apply.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	for name, dc := range cfg.Channels {
		if _, err := models.ParseChannel(name); err != nil {
			return nil, fmt.Errorf("channels.%s: %w", name, err)
		}
		if err := dc.Validate(); err != nil {
			return nil, fmt.Errorf("channels.%s: %w", name, err)
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("log.level", "info")
	v.SetDefault("engine.buffer_capacity", 1000)
}
