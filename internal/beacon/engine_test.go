package beacon

import (
	"math"
	"testing"
	"time"

	"github.com/dronewatch/geobeacon/internal/olc"
	"github.com/dronewatch/geobeacon/internal/telemetry"
)

func sample(lat, lon float64) telemetry.Sample {
	return telemetry.Sample{
		Timestamp:  time.Now(),
		Latitude:   lat,
		Longitude:  lon,
		Altitude:   100,
		Speed:      10,
		Satellites: 8,
		LinkActive: true,
	}
}

func TestEngineLockTransition(t *testing.T) {
	e := New(Config{})

	if got := e.Snapshot().Status; got != StatusAcquiring {
		t.Fatalf("initial status = %q, want %q", got, StatusAcquiring)
	}

	// Degenerate coordinate: stays unlocked, no outputs.
	e.Update(sample(0, 0))
	snap := e.Snapshot()
	if snap.Status != StatusAcquiring || snap.Fix.Valid || snap.PlusCode != "" {
		t.Fatalf("degenerate sample must not lock: %+v", snap)
	}

	// Too few satellites: still unlocked.
	s := sample(37.7749, -122.4194)
	s.Satellites = 2
	e.Update(s)
	if snap := e.Snapshot(); snap.Status != StatusAcquiring || snap.Fix.Valid {
		t.Fatalf("low-satellite sample must not lock: %+v", snap)
	}

	// A good sample locks and derives both outputs.
	e.Update(sample(37.7749, -122.4194))
	snap = e.Snapshot()
	if snap.Status != StatusLocked || !snap.Fix.Valid {
		t.Fatalf("good sample should lock: %+v", snap)
	}
	if want := olc.Encode(37.7749, -122.4194); snap.PlusCode != want {
		t.Errorf("plus code = %q, want %q", snap.PlusCode, want)
	}
	if snap.Barcode.At(0, 0) != true {
		t.Error("barcode not generated (finder corner is light)")
	}
	if snap.DistanceTotal != 0 {
		t.Errorf("first fix accumulated distance %f, want 0", snap.DistanceTotal)
	}
}

func TestEngineDistanceAccumulation(t *testing.T) {
	e := New(Config{})

	e.Update(sample(37.7749, -122.4194))
	e.Update(sample(37.7759, -122.4194)) // ~111 m north

	snap := e.Snapshot()
	if math.Abs(snap.DistanceTotal-111.19) > 0.1 {
		t.Errorf("distance = %f, want about 111.19", snap.DistanceTotal)
	}

	// Identical coordinate: nothing changes, caches stay.
	code, dist := snap.PlusCode, snap.DistanceTotal
	e.Update(sample(37.7759, -122.4194))
	snap = e.Snapshot()
	if snap.DistanceTotal != dist || snap.PlusCode != code {
		t.Errorf("unchanged coordinate must not disturb state")
	}

	// Monotonicity across a walk.
	last := snap.DistanceTotal
	lat := 37.7759
	for i := 0; i < 10; i++ {
		lat += 0.0005
		e.Update(sample(lat, -122.4194))
		d := e.Snapshot().DistanceTotal
		if d < last {
			t.Fatalf("distance decreased: %f -> %f", last, d)
		}
		last = d
	}
}

func TestEngineImplausibleJump(t *testing.T) {
	e := New(Config{})

	e.Update(sample(37.7749, -122.4194))
	before := e.Snapshot().DistanceTotal

	// A jump of roughly 110 km: coordinate is adopted, distance is not.
	e.Update(sample(38.7749, -122.4194))
	snap := e.Snapshot()
	if snap.DistanceTotal != before {
		t.Errorf("implausible segment accumulated: %f", snap.DistanceTotal)
	}
	if snap.Fix.Latitude != 38.7749 {
		t.Errorf("fix latitude = %f, want the new coordinate 38.7749", snap.Fix.Latitude)
	}
	if want := olc.Encode(38.7749, -122.4194); snap.PlusCode != want {
		t.Errorf("plus code = %q, want regeneration for the adopted coordinate %q", snap.PlusCode, want)
	}

	// Movement after the jump counts again.
	e.Update(sample(38.7759, -122.4194))
	if d := e.Snapshot().DistanceTotal; math.Abs(d-before-111.19) > 0.1 {
		t.Errorf("distance after jump = %f, want about %f", d, before+111.19)
	}
}

func TestEngineLinkLost(t *testing.T) {
	e := New(Config{})

	// Link loss before any fix: still acquiring.
	s := sample(37.7749, -122.4194)
	s.LinkActive = false
	e.Update(s)
	if got := e.Snapshot().Status; got != StatusAcquiring {
		t.Fatalf("status = %q, want %q", got, StatusAcquiring)
	}

	e.Update(sample(37.7749, -122.4194))
	locked := e.Snapshot()

	// Link loss after a fix is a distinct state; outputs stay frozen.
	e.Update(s)
	snap := e.Snapshot()
	if snap.Status != StatusLinkLost {
		t.Errorf("status = %q, want %q", snap.Status, StatusLinkLost)
	}
	if !snap.Fix.Valid || snap.PlusCode != locked.PlusCode || snap.Barcode != locked.Barcode {
		t.Error("link loss must not clear the fix or its derived outputs")
	}

	// Link recovery with the same coordinate relocks.
	e.Update(sample(37.7749, -122.4194))
	if got := e.Snapshot().Status; got != StatusLocked {
		t.Errorf("status after recovery = %q, want %q", got, StatusLocked)
	}
}

func TestEngineExtremes(t *testing.T) {
	e := New(Config{})

	s := sample(37.7749, -122.4194)
	s.Altitude, s.Speed, s.Current, s.CellVoltage, s.CapacityDrained = 150, 22, 30, 3.9, 100
	e.Update(s)

	s = sample(0, 0) // no fix, but link is active: extremes still move
	s.Altitude, s.Speed, s.Current, s.CellVoltage, s.CapacityDrained = 180, 18, 35, 3.7, 150
	e.Update(s)

	x := e.Snapshot().Extremes
	if x.MaxAltitude != 180 || x.MaxSpeed != 22 || x.MaxCurrent != 35 {
		t.Errorf("extremes = %+v", x)
	}
	if x.MinCellVoltage != 3.7 {
		t.Errorf("min cell voltage = %f, want 3.7", x.MinCellVoltage)
	}
	if x.MaxSatellites != 8 || x.CapacityDrained != 150 {
		t.Errorf("extremes = %+v", x)
	}

	// A voltage of zero means "no reading" and must not clobber the minimum.
	s.CellVoltage = 0
	e.Update(s)
	if x := e.Snapshot().Extremes; x.MinCellVoltage != 3.7 {
		t.Errorf("zero voltage reading clobbered the minimum: %f", x.MinCellVoltage)
	}
}

func TestEngineResetTrip(t *testing.T) {
	e := New(Config{})

	e.Update(sample(37.7749, -122.4194))
	e.Update(sample(37.7759, -122.4194))
	locked := e.Snapshot()

	e.ResetTrip()
	snap := e.Snapshot()
	if snap.DistanceTotal != 0 {
		t.Errorf("distance after reset = %f, want 0", snap.DistanceTotal)
	}
	if snap.Extremes != (Extremes{}) {
		t.Errorf("extremes after reset = %+v, want zero", snap.Extremes)
	}

	// The fix and derived outputs survive a trip reset.
	if !snap.Fix.Valid || snap.PlusCode != locked.PlusCode || snap.Barcode != locked.Barcode {
		t.Error("reset must not clear the fix or its derived outputs")
	}

	// The first voltage after reset seeds the minimum again.
	s := sample(37.7759, -122.4194)
	s.CellVoltage = 4.1
	e.Update(s)
	if x := e.Snapshot().Extremes; x.MinCellVoltage != 4.1 {
		t.Errorf("min voltage after reset = %f, want 4.1", x.MinCellVoltage)
	}
}
