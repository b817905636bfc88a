package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dronewatch/geobeacon/internal/beacon"
	"github.com/dronewatch/geobeacon/internal/storage"
	"github.com/dronewatch/geobeacon/internal/telemetry"
)

const maxBatchSize = 100

// WithMaxBatchSize sets the maximum batch size of collected fix records to
// store within a single database transaction.
func WithMaxBatchSize(size int) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.maxBatchSize = size
	}
}

// WithMinTickInterval sets the minimum interval between processed samples.
// Samples arriving sooner are skipped entirely, before any state mutation.
func WithMinTickInterval(interval time.Duration) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.minTickInterval = interval
	}
}

// WithPublisher sets the MQTT publisher for snapshots and alerts.
func WithPublisher(p *Publisher) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.publisher = p
	}
}

// Orchestrator drives the per-tick pipeline: telemetry sample in, engine
// and battery monitor updated in order, outputs logged, published and
// batched into storage.
type Orchestrator struct {
	engine  *beacon.Engine
	monitor *beacon.BatteryMonitor
	source  telemetry.Source

	logger    *slog.Logger
	store     *storage.Store
	publisher *Publisher

	maxBatchSize    int
	minTickInterval time.Duration

	sessionID  int64
	batch      []storage.FixRecord
	lastTick   time.Time
	lastStatus beacon.Status
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(engine *beacon.Engine, monitor *beacon.BatteryMonitor, source telemetry.Source,
	store *storage.Store, logger *slog.Logger, options ...func(*Orchestrator)) *Orchestrator {

	o := Orchestrator{
		engine:       engine,
		monitor:      monitor,
		source:       source,
		store:        store,
		logger:       logger,
		maxBatchSize: maxBatchSize,
	}

	for _, option := range options {
		option(&o)
	}

	return &o
}

// Run consumes the telemetry stream until the context is canceled or the
// source ends, then flushes what remains.
func (o *Orchestrator) Run(ctx context.Context, sessionConfig any) error {
	sessionID, err := o.store.CreateSession(sourceName(o.source), sessionConfig)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	o.sessionID = sessionID

	samples, err := o.source.Samples(ctx)
	if err != nil {
		return fmt.Errorf("starting telemetry source: %w", err)
	}

	o.logger.Info("collection started", slog.Int64("session", sessionID))

	for sample := range samples {
		o.tick(sample)
	}

	if err := o.flush(); err != nil {
		o.logger.Error(err.Error())
	}

	if es, ok := o.source.(interface{ Err() error }); ok {
		if err := es.Err(); err != nil && ctx.Err() == nil {
			return fmt.Errorf("telemetry source: %w", err)
		}
	}
	return nil
}

// tick runs one sample through the pipeline. Ordering matters: the sample
// gate comes before any state mutation, the engine resolves validity and
// distance before its outputs are read, and the battery decision is
// independent of the fix state.
func (o *Orchestrator) tick(sample telemetry.Sample) {
	if o.minTickInterval > 0 && !o.lastTick.IsZero() &&
		sample.Timestamp.Sub(o.lastTick) < o.minTickInterval {
		return
	}
	o.lastTick = sample.Timestamp

	o.engine.Update(sample)
	fired := o.monitor.Evaluate(sample.CellVoltage, sample.Timestamp)

	snap := o.engine.Snapshot()

	if snap.Status != o.lastStatus {
		o.logStatusChange(snap)
		o.lastStatus = snap.Status
	}

	if fired {
		o.logger.Warn("low voltage alert",
			slog.Float64("voltage", sample.CellVoltage),
			slog.String("plusCode", snap.PlusCode))
	}

	if o.publisher != nil {
		if fired {
			o.publisher.PublishAlert(sample.CellVoltage, sample.Timestamp)
		}
		o.publisher.PublishSnapshot(snap)
	}

	o.batch = append(o.batch, toFixRecord(o.sessionID, sample, snap, fired))
	if len(o.batch) >= o.maxBatchSize {
		if err := o.flush(); err != nil {
			o.logger.Error(err.Error())
		}
	}
}

func (o *Orchestrator) flush() error {
	if len(o.batch) == 0 {
		return nil
	}

	if err := o.store.BatchInsertFixes(o.batch); err != nil {
		return fmt.Errorf("storing fix records: %w", err)
	}
	o.batch = o.batch[:0]
	return nil
}

func (o *Orchestrator) logStatusChange(snap beacon.Snapshot) {
	switch snap.Status {
	case beacon.StatusLocked:
		o.logger.Info("fix locked",
			slog.String("plusCode", snap.PlusCode),
			slog.String("distance", formatDistance(snap.DistanceTotal)))

	case beacon.StatusLinkLost:
		o.logger.Warn("telemetry link lost, holding last fix",
			slog.String("plusCode", snap.PlusCode))

	case beacon.StatusAcquiring:
		o.logger.Info("waiting for fix")
	}
}

func formatDistance(meters float64) string {
	value, suffix := humanize.ComputeSI(meters)
	return fmt.Sprintf("%0.2f %sm", value, suffix)
}

func toFixRecord(sessionID int64, sample telemetry.Sample, snap beacon.Snapshot, fired bool) storage.FixRecord {
	rec := storage.FixRecord{
		SessionID:     sessionID,
		Timestamp:     sample.Timestamp.UTC(),
		DistanceTotal: snap.DistanceTotal,
		AlertFired:    fired,
	}

	if snap.Fix.Valid {
		rec.Latitude = sql.NullFloat64{Float64: snap.Fix.Latitude, Valid: true}
		rec.Longitude = sql.NullFloat64{Float64: snap.Fix.Longitude, Valid: true}
		rec.Altitude = sql.NullFloat64{Float64: snap.Fix.Altitude, Valid: true}
		rec.Speed = sql.NullFloat64{Float64: sample.Speed, Valid: true}
		rec.Satellites = sql.NullInt64{Int64: int64(sample.Satellites), Valid: true}
		rec.PlusCode = sql.NullString{String: snap.PlusCode, Valid: true}
	}

	if sample.CellVoltage > 0 {
		rec.CellVoltage = sql.NullFloat64{Float64: sample.CellVoltage, Valid: true}
	}

	return rec
}

func sourceName(source telemetry.Source) string {
	switch source.(type) {
	case *telemetry.SerialSource:
		return "nmea-serial"
	case *telemetry.NMEASource:
		return "nmea-file"
	case *telemetry.ReplaySource:
		return "replay"
	default:
		return "unknown"
	}
}
