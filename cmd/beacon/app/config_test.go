package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
settings:
  logLevel: debug
telemetry:
  source: serial
  serialPort: /dev/ttyUSB0
engine:
  minSatellites: 5
  maxSegment: 5000
  minTickInterval: 0.5
battery:
  thresholdVolts: 3.5
  minInterval: 2
  minStepVolts: 0.1
storage:
  dataDirectory: data
  maxBatchSize: 50
mqtt:
  enabled: true
  broker: tcp://localhost:1883
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Telemetry.Source != SourceSerial {
		t.Errorf("source = %q, want serial", config.Telemetry.Source)
	}
	if config.Telemetry.BaudRate != 9600 {
		t.Errorf("baud rate = %d, want default 9600", config.Telemetry.BaudRate)
	}
	if config.Engine.tickInterval() != 500*time.Millisecond {
		t.Errorf("tick interval = %v, want 500ms", config.Engine.tickInterval())
	}
	if config.Battery.interval() != 2*time.Second {
		t.Errorf("battery interval = %v, want 2s", config.Battery.interval())
	}
	if config.MQTT.ClientID != "geobeacon" || config.MQTT.TopicPrefix != "geobeacon" {
		t.Errorf("mqtt defaults not applied: %+v", config.MQTT)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown source", "telemetry:\n  source: carrier-pigeon\nbattery:\n  thresholdVolts: 3.5\n"},
		{"serial without port", "telemetry:\n  source: serial\nbattery:\n  thresholdVolts: 3.5\n"},
		{"replay without path", "telemetry:\n  source: replay\nbattery:\n  thresholdVolts: 3.5\n"},
		{"missing battery threshold", "telemetry:\n  source: replay\n  path: log.jsonl\n"},
		{"mqtt without broker", "telemetry:\n  source: replay\n  path: log.jsonl\nbattery:\n  thresholdVolts: 3.5\nmqtt:\n  enabled: true\n"},
		{"not yaml", "{{{"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tc.content)); err == nil {
				t.Error("expected error for invalid configuration")
			}
		})
	}
}
