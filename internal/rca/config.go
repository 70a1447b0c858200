package rca

import "github.com/sells-group/orderops/internal/model"

// Config holds the run-scoped rule knobs. Loaded once per run and
// passed explicitly; there is no global mutable state.
type Config struct {
	// SlipThresholdHours is the minimum lateness before ETA_SLIP fires.
	SlipThresholdHours float64
	// MediumHours and HighHours are the severity band edges: below
	// MediumHours is LOW, at or above HighHours is HIGH.
	MediumHours float64
	HighHours   float64
	// Disabled lists rule kinds switched off for this run.
	Disabled []model.IncidentKind
}

// DefaultConfig documents the default thresholds: slips under an hour
// are noise, under four hours LOW, under a day MEDIUM, beyond that
// HIGH.
func DefaultConfig() Config {
	return Config{
		SlipThresholdHours: 1.0,
		MediumHours:        4.0,
		HighHours:          24.0,
	}
}

func (c Config) enabled(kind model.IncidentKind) bool {
	for _, d := range c.Disabled {
		if d == kind {
			return false
		}
	}
	return true
}

// slipSeverity maps lateness magnitude onto a severity band. It is
// non-decreasing in the magnitude.
func (c Config) slipSeverity(deltaHours float64) model.Severity {
	magnitude := deltaHours
	if magnitude < 0 {
		magnitude = -magnitude
	}
	switch {
	case magnitude >= c.HighHours:
		return model.SeverityHigh
	case magnitude >= c.MediumHours:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}
