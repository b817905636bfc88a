package telemetry

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// ReplaySource plays back a recorded flight log: one JSON-encoded Sample
// per line, emitted at a fixed pace. Unlike the NMEA sources it carries
// electrical fields, so replays exercise the battery path too.
type ReplaySource struct {
	path   string
	pace   time.Duration
	logger *slog.Logger

	err error
}

// NewReplaySource creates a source over the log at path. A pace of zero
// replays the log as fast as the consumer accepts it.
func NewReplaySource(path string, pace time.Duration, logger *slog.Logger) *ReplaySource {
	return &ReplaySource{path: path, pace: pace, logger: logger}
}

func (s *ReplaySource) Samples(ctx context.Context) (<-chan Sample, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening flight log: %w", err)
	}

	out := make(chan Sample)

	go func() {
		defer close(out)
		defer f.Close()
		s.err = s.replay(ctx, f, out)
	}()

	return out, nil
}

// Err returns the error that terminated the replay, if any. It must only
// be called after the samples channel has closed.
func (s *ReplaySource) Err() error {
	return s.err
}

func (s *ReplaySource) replay(ctx context.Context, f *os.File, out chan<- Sample) error {
	var ticker *time.Ticker
	if s.pace > 0 {
		ticker = time.NewTicker(s.pace)
		defer ticker.Stop()
	}

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var sample Sample
		if err := json.Unmarshal(raw, &sample); err != nil {
			s.logger.Warn(fmt.Sprintf("skipping malformed log entry: %s", err.Error()), slog.Int("line", line))
			continue
		}

		if ticker != nil {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		select {
		case out <- sample:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading flight log: %w", err)
	}

	return nil
}
