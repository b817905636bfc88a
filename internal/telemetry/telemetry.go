// Package telemetry defines the per-tick sample model and the sources
// that produce samples: a live NMEA stream, a serial GPS port, and a
// recorded flight-log replay.
package telemetry

import (
	"context"
	"time"
)

// Sample is one tick of positional and electrical telemetry from the
// transmitter. Positional fields come from the GPS epoch; electrical
// fields are zero when the source has no battery instrumentation.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`

	Latitude   float64 `json:"latitude"`   // decimal degrees
	Longitude  float64 `json:"longitude"`  // decimal degrees
	Altitude   float64 `json:"altitude"`   // meters
	Speed      float64 `json:"speed"`      // ground speed in m/s
	Satellites int     `json:"satellites"` // satellites used in the solution
	LinkActive bool    `json:"linkActive"` // telemetry downlink is alive

	CellVoltage     float64 `json:"cellVoltage,omitempty"`     // per-cell volts, 0 = no reading
	Current         float64 `json:"current,omitempty"`         // amps
	CapacityDrained float64 `json:"capacityDrained,omitempty"` // mAh consumed this session
}

// Source produces a stream of samples until the context is canceled or
// the underlying input ends. The returned channel is closed by the source.
type Source interface {
	Samples(ctx context.Context) (<-chan Sample, error)
}
