package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestReplaySource(t *testing.T) {
	log := `{"timestamp":"2026-08-26T17:08:34Z","latitude":37.7749,"longitude":-122.4194,"altitude":120,"speed":12.5,"satellites":9,"linkActive":true,"cellVoltage":3.82,"current":14.2,"capacityDrained":310}
not json
{"timestamp":"2026-08-26T17:08:35Z","latitude":37.7759,"longitude":-122.4194,"altitude":121,"speed":12.0,"satellites":9,"linkActive":true,"cellVoltage":3.81,"current":13.8,"capacityDrained":315}
`

	path := filepath.Join(t.TempDir(), "flight.jsonl")
	if err := os.WriteFile(path, []byte(log), 0o644); err != nil {
		t.Fatalf("writing flight log: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	src := NewReplaySource(path, 0, logger)
	samples := collect(t, src)

	if err := src.Err(); err != nil {
		t.Fatalf("replay terminated with error: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2 (malformed line skipped)", len(samples))
	}

	if samples[0].CellVoltage != 3.82 || samples[0].CapacityDrained != 310 {
		t.Errorf("electrical fields not replayed: %+v", samples[0])
	}
	if samples[1].Latitude != 37.7759 {
		t.Errorf("second sample latitude = %f, want 37.7759", samples[1].Latitude)
	}
}

func TestReplaySourceMissingFile(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	src := NewReplaySource(filepath.Join(t.TempDir(), "absent.jsonl"), 0, logger)

	if _, err := src.Samples(context.Background()); err == nil {
		t.Error("expected error for a missing flight log")
	}
}
