package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	SourceSerial SourceType = "serial"
	SourceNMEA   SourceType = "nmea-file"
	SourceReplay SourceType = "replay"
)

type SourceType string

// Config represents the main application configuration.
type Config struct {
	Settings  Settings        `yaml:"settings"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Engine    EngineConfig    `yaml:"engine"`
	Battery   BatteryConfig   `yaml:"battery"`
	Storage   StorageConfig   `yaml:"storage"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
}

// Settings represents global application settings.
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// TelemetryConfig selects and configures the sample source.
type TelemetryConfig struct {
	Source     SourceType `yaml:"source"`
	SerialPort string     `yaml:"serialPort"`
	BaudRate   uint       `yaml:"baudRate"`
	Path       string     `yaml:"path"`       // NMEA file or flight log
	ReplayPace float64    `yaml:"replayPace"` // seconds between replayed samples
}

// EngineConfig holds the aggregator thresholds.
type EngineConfig struct {
	MinSatellites   int     `yaml:"minSatellites"`
	MaxSegment      float64 `yaml:"maxSegment"`      // meters
	MinTickInterval float64 `yaml:"minTickInterval"` // seconds, 0 = every sample
}

// BatteryConfig holds the low-voltage alert parameters.
type BatteryConfig struct {
	ThresholdVolts float64 `yaml:"thresholdVolts"`
	MinInterval    float64 `yaml:"minInterval"` // seconds between repeat alerts
	MinStepVolts   float64 `yaml:"minStepVolts"`
}

// StorageConfig represents storage settings.
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
	MaxBatchSize  int    `yaml:"maxBatchSize"`
}

// MQTTConfig configures the optional snapshot/alert publisher.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"clientID"`
	TopicPrefix string `yaml:"topicPrefix"`
}

// LoadConfig reads and validates the yaml configuration at path.
func LoadConfig(path string) (*Config, error) {
	p, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	var config Config
	if err = yaml.Unmarshal(p, &config); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	switch config.Telemetry.Source {
	case SourceSerial:
		if config.Telemetry.SerialPort == "" {
			return nil, fmt.Errorf("telemetry source %q requires serialPort", config.Telemetry.Source)
		}
		if config.Telemetry.BaudRate == 0 {
			config.Telemetry.BaudRate = 9600
		}

	case SourceNMEA, SourceReplay:
		if config.Telemetry.Path == "" {
			return nil, fmt.Errorf("telemetry source %q requires path", config.Telemetry.Source)
		}

	default:
		return nil, fmt.Errorf("unknown telemetry source %q", config.Telemetry.Source)
	}

	if config.Battery.ThresholdVolts <= 0 {
		return nil, fmt.Errorf("battery thresholdVolts must be positive")
	}

	if config.MQTT.Enabled {
		if config.MQTT.Broker == "" {
			return nil, fmt.Errorf("mqtt requires a broker address")
		}
		if config.MQTT.ClientID == "" {
			config.MQTT.ClientID = "geobeacon"
		}
		if config.MQTT.TopicPrefix == "" {
			config.MQTT.TopicPrefix = "geobeacon"
		}
	}

	return &config, nil
}

func (c *BatteryConfig) interval() time.Duration {
	return time.Duration(c.MinInterval * float64(time.Second))
}

func (c *EngineConfig) tickInterval() time.Duration {
	return time.Duration(c.MinTickInterval * float64(time.Second))
}

func (c *TelemetryConfig) pace() time.Duration {
	return time.Duration(c.ReplayPace * float64(time.Second))
}
