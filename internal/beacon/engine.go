// Package beacon derives shareable location outputs from a telemetry
// stream: a validated fix, a jump-filtered running distance, session
// extremes, an Open Location Code style string and a scannable barcode
// matrix, plus hysteresis-gated low-voltage alerts.
package beacon

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/dronewatch/geobeacon/internal/geo"
	"github.com/dronewatch/geobeacon/internal/olc"
	"github.com/dronewatch/geobeacon/internal/qr"
	"github.com/dronewatch/geobeacon/internal/telemetry"
)

const (
	// StatusAcquiring means no trusted fix has been seen yet.
	StatusAcquiring Status = "acquiring"

	// StatusLocked means a fix is held and the link is alive.
	StatusLocked Status = "locked"

	// StatusLinkLost means the link dropped after a fix was acquired.
	// The fix and its derived outputs stay frozen at the last good value.
	StatusLinkLost Status = "link-lost"
)

type Status string

// DefaultMaxSegment is the implausibility ceiling in meters for a single
// distance segment. Consecutive fixes further apart than this are treated
// as GPS glitches and excluded from the running total.
const DefaultMaxSegment = 5000.0

// DefaultMinSatellites is the satellite count required before a coordinate
// is trusted enough to lock onto.
const DefaultMinSatellites = 4

// Config holds the aggregator acceptance thresholds.
type Config struct {
	MinSatellites int
	MaxSegment    float64 // meters
}

// Fix is the last trusted coordinate. Once Valid it is never cleared,
// only superseded by a newer accepted coordinate.
type Fix struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
	Valid     bool
}

// Extremes tracks session records. Each field is independently monotonic
// until ResetTrip. MinCellVoltage uses 0 as the "unset" sentinel so the
// first real reading always seeds it.
type Extremes struct {
	MaxAltitude     float64
	MaxSpeed        float64
	MaxCurrent      float64
	MaxSatellites   int
	MinCellVoltage  float64
	CapacityDrained float64
}

// Snapshot is a read-only view of the engine state for display layers.
type Snapshot struct {
	Status        Status
	Fix           Fix
	DistanceTotal float64 // meters
	PlusCode      string
	Barcode       qr.Matrix
	Extremes      Extremes
}

// WithLogger sets the logger for the engine.
func WithLogger(logger *slog.Logger) func(e *Engine) {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine is the telemetry aggregator. It owns the fix, the distance
// accumulator, the session extremes and the cached location outputs, and
// regenerates the code and barcode only when the coordinate changes.
// All methods are safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	cfg    Config
	logger *slog.Logger

	status   Status
	fix      Fix
	distance float64
	extremes Extremes

	plusCode string
	barcode  qr.Matrix
}

// New creates an engine. Zero config fields fall back to the defaults.
func New(cfg Config, options ...func(e *Engine)) *Engine {
	if cfg.MinSatellites == 0 {
		cfg.MinSatellites = DefaultMinSatellites
	}
	if cfg.MaxSegment == 0 {
		cfg.MaxSegment = DefaultMaxSegment
	}

	e := Engine{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		status: StatusAcquiring,
	}

	for _, option := range options {
		option(&e)
	}

	return &e
}

// Update folds one telemetry sample into the engine. Invalid or degenerate
// samples never disturb the held fix or its derived outputs; they degrade
// to "hold last good state".
func (e *Engine) Update(s telemetry.Sample) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !s.LinkActive {
		if e.fix.Valid {
			e.status = StatusLinkLost
		}
		return
	}

	// Extremes follow every link-active sample, locked or not.
	e.updateExtremes(s)

	if s.Satellites < e.cfg.MinSatellites || !geo.ValidFix(s.Latitude, s.Longitude) {
		// Waiting for a first fix, or holding the last good one.
		if e.fix.Valid {
			e.status = StatusLocked
		}
		return
	}

	changed := !e.fix.Valid || s.Latitude != e.fix.Latitude || s.Longitude != e.fix.Longitude
	if changed {
		e.advanceFix(s)
	}
	e.status = StatusLocked
}

// advanceFix accepts a new coordinate: accumulates the segment distance
// when plausible, regenerates the location outputs, and supersedes the
// fix. The caches and the fix commit together so consumers never observe
// outputs derived from a different coordinate.
func (e *Engine) advanceFix(s telemetry.Sample) {
	segment := -1.0
	if e.fix.Valid {
		segment = geo.Distance(e.fix.Latitude, e.fix.Longitude, s.Latitude, s.Longitude)
	}

	barcode, err := qr.Encode(s.Latitude, s.Longitude)
	if err != nil {
		// Cannot happen for the fixed geo URI template; hold everything.
		e.logger.Error(fmt.Sprintf("encoding barcode: %s", err.Error()))
		return
	}

	switch {
	case segment < 0:
		// First accepted fix, nothing to accumulate.
	case segment < e.cfg.MaxSegment:
		e.distance += segment
	default:
		// The coordinate is adopted as the genuine position, but the
		// jump is not counted as movement.
		e.logger.Warn("dropping implausible distance segment",
			slog.Float64("meters", segment),
			slog.Float64("ceiling", e.cfg.MaxSegment))
	}

	e.fix = Fix{
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Altitude:  s.Altitude,
		Valid:     true,
	}
	e.plusCode = olc.Encode(s.Latitude, s.Longitude)
	e.barcode = barcode
}

func (e *Engine) updateExtremes(s telemetry.Sample) {
	x := &e.extremes
	x.MaxAltitude = max(x.MaxAltitude, s.Altitude)
	x.MaxSpeed = max(x.MaxSpeed, s.Speed)
	x.MaxCurrent = max(x.MaxCurrent, s.Current)
	x.MaxSatellites = max(x.MaxSatellites, s.Satellites)
	x.CapacityDrained = max(x.CapacityDrained, s.CapacityDrained)

	if s.CellVoltage > 0 && (x.MinCellVoltage == 0 || s.CellVoltage < x.MinCellVoltage) {
		x.MinCellVoltage = s.CellVoltage
	}
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Snapshot{
		Status:        e.status,
		Fix:           e.fix,
		DistanceTotal: e.distance,
		PlusCode:      e.plusCode,
		Barcode:       e.barcode,
		Extremes:      e.extremes,
	}
}

// ResetTrip clears the distance accumulator and the session extremes.
// The fix and its derived outputs persist until a new fix supersedes them.
func (e *Engine) ResetTrip() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.distance = 0
	e.extremes = Extremes{}
}
