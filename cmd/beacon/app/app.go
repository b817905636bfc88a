package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dronewatch/geobeacon/internal/beacon"
	"github.com/dronewatch/geobeacon/internal/storage"
	"github.com/dronewatch/geobeacon/internal/telemetry"
)

const storageDir = "data"

// Run wires the telemetry source, engine, battery monitor, storage and
// optional publisher together and drives them until the context ends.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	store, err := createStorage(&config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	defer store.Close()

	source, closer, err := createSource(&config.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("failed to create telemetry source: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	engine := beacon.New(beacon.Config{
		MinSatellites: config.Engine.MinSatellites,
		MaxSegment:    config.Engine.MaxSegment,
	}, beacon.WithLogger(logger))

	monitor := beacon.NewBatteryMonitor(beacon.BatteryConfig{
		Threshold:   config.Battery.ThresholdVolts,
		MinInterval: config.Battery.interval(),
		MinStep:     config.Battery.MinStepVolts,
	})

	options := []func(*Orchestrator){
		WithMinTickInterval(config.Engine.tickInterval()),
	}
	if config.Storage.MaxBatchSize > 0 {
		options = append(options, WithMaxBatchSize(config.Storage.MaxBatchSize))
	}

	if config.MQTT.Enabled {
		publisher, err := NewPublisher(&config.MQTT, logger)
		if err != nil {
			return fmt.Errorf("failed to create publisher: %w", err)
		}
		defer publisher.Close()

		options = append(options, WithPublisher(publisher))
	}

	o := NewOrchestrator(engine, monitor, source, store, logger, options...)
	return o.Run(ctx, config.Telemetry)
}

func createSource(config *TelemetryConfig, logger *slog.Logger) (telemetry.Source, io.Closer, error) {
	switch config.Source {
	case SourceSerial:
		src := telemetry.NewSerialSource(config.SerialPort, config.BaudRate, logger)
		return src, src, nil

	case SourceNMEA:
		f, err := os.Open(config.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening NMEA file: %w", err)
		}
		return telemetry.NewNMEASource(f, telemetry.WithLogger(logger)), f, nil

	case SourceReplay:
		return telemetry.NewReplaySource(config.Path, config.pace(), logger), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown telemetry source %q", config.Source)
	}
}

func createStorage(config *StorageConfig) (*storage.Store, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}

	var dbPath string
	if config.DataDirectory != "" {
		dbPath = filepath.Join(wd, config.DataDirectory)
	} else {
		dbPath = filepath.Join(wd, storageDir)
	}

	stat, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage directory '%s' does not exist: %w", dbPath, err)
		}
		return nil, fmt.Errorf("checking storage directory '%s': %w", dbPath, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("invalid storage directory '%s'", dbPath)
	}

	dbPath = filepath.Join(dbPath, fmt.Sprintf("beacon_session_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	return storage.New(dbPath), nil
}
