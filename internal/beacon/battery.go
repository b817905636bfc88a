package beacon

import (
	"sync"
	"time"
)

// BatteryConfig holds the hysteresis parameters for low-voltage alerts.
type BatteryConfig struct {
	// Threshold is the per-cell voltage below which alerts fire. It is
	// chemistry specific and externally owned configuration.
	Threshold float64

	// MinInterval is the minimum time between repeat alerts within one
	// low-voltage episode.
	MinInterval time.Duration

	// MinStep is the additional voltage drop, below the voltage of the
	// previous alert, required before a repeat alert fires.
	MinStep float64
}

// BatteryMonitor gates low-voltage alerts with hysteresis: the first
// crossing below the threshold fires immediately, further alerts within
// the same episode require both MinInterval and MinStep, and recovering
// above the threshold re-arms the monitor. This yields monotone
// decreasing-step alerts instead of an alert storm while the voltage
// hovers around the threshold.
type BatteryMonitor struct {
	mu  sync.Mutex
	cfg BatteryConfig

	// lastAlertVoltage of 0 means no active low-voltage episode.
	lastAlertVoltage float64
	lastAlertTime    time.Time
}

// NewBatteryMonitor creates a monitor with the given parameters.
func NewBatteryMonitor(cfg BatteryConfig) *BatteryMonitor {
	return &BatteryMonitor{cfg: cfg}
}

// Evaluate folds one voltage reading and reports whether an alert should
// fire on this tick. Non-positive voltages mean "no reading" and leave the
// monitor untouched. At most one alert fires per call.
func (m *BatteryMonitor) Evaluate(voltage float64, now time.Time) bool {
	if voltage <= 0 {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if voltage >= m.cfg.Threshold {
		m.lastAlertVoltage = 0 // recovered, re-arm
		return false
	}

	if m.lastAlertVoltage == 0 {
		// First crossing of a fresh episode fires immediately.
		m.fire(voltage, now)
		return true
	}

	if now.Sub(m.lastAlertTime) >= m.cfg.MinInterval && m.lastAlertVoltage-voltage >= m.cfg.MinStep {
		m.fire(voltage, now)
		return true
	}

	return false
}

func (m *BatteryMonitor) fire(voltage float64, now time.Time) {
	m.lastAlertVoltage = voltage
	m.lastAlertTime = now
}
