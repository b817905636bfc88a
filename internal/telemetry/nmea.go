package telemetry

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
)

// ParseErrorsThreshold defines the number of consecutive parse errors
// allowed before the source gives up on its input.
const ParseErrorsThreshold = 5

// ErrTooManyParseErrors is returned when the number of consecutive parse
// errors exceeds the threshold.
var ErrTooManyParseErrors = errors.New("too many consecutive parse errors")

const knotsToMS = 0.514444

// WithLogger sets the logger for the NMEA source.
func WithLogger(logger *slog.Logger) func(s *NMEASource) {
	return func(s *NMEASource) {
		s.logger = logger
	}
}

// WithParseErrorsThreshold sets the threshold for consecutive parse errors.
func WithParseErrorsThreshold(threshold uint8) func(s *NMEASource) {
	return func(s *NMEASource) {
		s.parseErrorsThreshold = threshold
	}
}

// NMEASource folds an NMEA sentence stream into telemetry samples. Each
// RMC sentence closes one GPS epoch and emits a sample; GGA sentences seen
// since the previous epoch contribute altitude and satellite count.
type NMEASource struct {
	r io.Reader

	parseErrorsThreshold uint8
	logger               *slog.Logger

	err error // sticky stream error, inspected after the channel closes
}

// now stamps emitted samples; swapped out in tests.
var now = time.Now

// NewNMEASource creates a source reading sentences from r. The reader is
// not closed by the source; callers own its lifetime.
func NewNMEASource(r io.Reader, options ...func(s *NMEASource)) *NMEASource {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := NMEASource{
		r:                    r,
		logger:               logger,
		parseErrorsThreshold: ParseErrorsThreshold,
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

// Samples starts a goroutine that scans the stream and emits one sample
// per RMC sentence. The channel closes when the stream ends, the context
// is canceled, or parsing fails repeatedly; Err reports why.
func (s *NMEASource) Samples(ctx context.Context) (<-chan Sample, error) {
	out := make(chan Sample)

	go func() {
		defer close(out)
		s.err = s.scan(ctx, out)
	}()

	return out, nil
}

// Err returns the error that terminated the stream, if any. It must only
// be called after the samples channel has closed.
func (s *NMEASource) Err() error {
	return s.err
}

func (s *NMEASource) scan(ctx context.Context, out chan<- Sample) error {
	var parseErrors uint8
	var epoch epochState

	scanner := bufio.NewScanner(s.r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			parseErrors++
			s.logger.Warn(fmt.Sprintf("error parsing sentence: %s", err.Error()), slog.String("line", line))

			if parseErrors >= s.parseErrorsThreshold {
				return ErrTooManyParseErrors
			}
			continue
		}
		parseErrors = 0

		sample, ok := epoch.fold(sentence)
		if !ok {
			continue
		}

		select {
		case out <- sample:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, fs.ErrClosed) {
		return fmt.Errorf("reading sentence stream: %w", err)
	}

	return nil
}

// epochState accumulates per-epoch fields across sentence types until an
// RMC sentence completes the epoch.
type epochState struct {
	altitude   float64
	satellites int
}

func (e *epochState) fold(sentence nmea.Sentence) (Sample, bool) {
	switch sentence.DataType() {
	case nmea.TypeGGA:
		gga := sentence.(nmea.GGA)
		e.altitude = gga.Altitude
		e.satellites = int(gga.NumSatellites)
		return Sample{}, false

	case nmea.TypeRMC:
		rmc := sentence.(nmea.RMC)
		return Sample{
			Timestamp:  now(),
			Latitude:   rmc.Latitude,
			Longitude:  rmc.Longitude,
			Altitude:   e.altitude,
			Speed:      rmc.Speed * knotsToMS,
			Satellites: e.satellites,
			LinkActive: rmc.Validity == nmea.ValidRMC,
		}, true

	default:
		return Sample{}, false
	}
}
