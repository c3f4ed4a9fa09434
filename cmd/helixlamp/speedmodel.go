package main

import (
	"fmt"
	"sort"
)

// ============================================================================
// Speed Model - logical speed -> physical actuation / rotation estimate
// ============================================================================
//
// The motor responds to duty cycle non-linearly: below a dead-zone threshold
// it does not move at all, and the relationship between duty and rotation
// speed is only known empirically. Two pure mappings live here:
//
//   - DutyFor: logical speed [0..1000] -> duty cycle, dead-zone compensated
//   - RevolutionTimeFor: logical speed -> estimated ms per full rotation,
//     interpolated over a calibration table
//
// Both are free of I/O and state so they can be exercised directly in tests.
// ============================================================================

// DutyCurve selects how logical speed maps onto the duty range.
type DutyCurve string

const (
	// DutyCurveLinear maps [1..max] linearly onto [DutyMin..DutyMax].
	DutyCurveLinear DutyCurve = "linear"
	// DutyCurveQuadratic applies a squared easing so low logical speeds
	// produce proportionally less duty. Kept as an alternative tuning for
	// sculptures whose motors respond too aggressively at the low end.
	DutyCurveQuadratic DutyCurve = "quadratic"
)

// SpeedSyncPair is one calibration point: at logical speed Speed, one full
// physical rotation takes RevTimeMS milliseconds.
type SpeedSyncPair struct {
	Speed     int `yaml:"speed"`
	RevTimeMS int `yaml:"rev_time_ms"`
}

// SpeedModel converts the logical speed domain into physical quantities.
type SpeedModel struct {
	curve        DutyCurve
	dutyMin      int
	dutyMax      int
	table        []SpeedSyncPair
	minRevTimeMS int
}

// newSpeedModel validates the calibration table and returns a model.
// The table must hold at least two entries with strictly increasing speeds;
// anything less makes interpolation meaningless.
func newSpeedModel(curve DutyCurve, dutyMin, dutyMax int, table []SpeedSyncPair, minRevTimeMS int) (*SpeedModel, error) {
	switch curve {
	case DutyCurveLinear, DutyCurveQuadratic:
	case "":
		curve = DutyCurveLinear
	default:
		return nil, fmt.Errorf("unknown duty curve %q", curve)
	}
	if dutyMin <= 0 || dutyMax <= dutyMin {
		return nil, fmt.Errorf("invalid duty range [%d..%d]", dutyMin, dutyMax)
	}
	if len(table) < 2 {
		return nil, fmt.Errorf("speed sync table needs at least 2 entries, got %d", len(table))
	}
	if !sort.SliceIsSorted(table, func(i, j int) bool { return table[i].Speed < table[j].Speed }) {
		return nil, fmt.Errorf("speed sync table must be sorted by ascending speed")
	}
	for i := 1; i < len(table); i++ {
		if table[i].Speed == table[i-1].Speed {
			return nil, fmt.Errorf("speed sync table has duplicate speed %d", table[i].Speed)
		}
	}
	if minRevTimeMS <= 0 {
		minRevTimeMS = defaultMinRevTimeMS
	}
	return &SpeedModel{
		curve:        curve,
		dutyMin:      dutyMin,
		dutyMax:      dutyMax,
		table:        table,
		minRevTimeMS: minRevTimeMS,
	}, nil
}

// DutyFor returns the duty cycle for a logical speed. Zero and negative
// speeds always yield zero duty (motor off); positive speeds never dip below
// the dead-zone threshold.
func (m *SpeedModel) DutyFor(speed int) int {
	if speed <= 0 {
		return 0
	}
	if speed > logicalSpeedMax {
		speed = logicalSpeedMax
	}

	span := m.dutyMax - m.dutyMin
	switch m.curve {
	case DutyCurveQuadratic:
		f := float64(speed) / float64(logicalSpeedMax)
		return m.dutyMin + int(f*f*float64(span)+0.5)
	default:
		// Map [1..max] -> [dutyMin..dutyMax] so speed 1 already clears the
		// dead zone.
		return m.dutyMin + (speed-1)*span/(logicalSpeedMax-1)
	}
}

// RevolutionTimeFor estimates the time of one full rotation at the given
// logical speed, in milliseconds.
//
// Speeds between table entries are interpolated linearly. Speeds outside the
// table are extrapolated using the slope of the nearest segment - NOT
// clamped. Clamping would freeze the LED step interval at the table edges
// while the motor keeps changing speed during ramps, visibly breaking sync.
// The result is floored so downstream interval divisions stay sane.
func (m *SpeedModel) RevolutionTimeFor(speed int) int {
	t := m.table

	var lo, hi SpeedSyncPair
	switch {
	case speed <= t[0].Speed:
		lo, hi = t[0], t[1]
	case speed >= t[len(t)-1].Speed:
		lo, hi = t[len(t)-2], t[len(t)-1]
	default:
		i := sort.Search(len(t), func(i int) bool { return t[i].Speed >= speed })
		lo, hi = t[i-1], t[i]
	}

	slope := float64(hi.RevTimeMS-lo.RevTimeMS) / float64(hi.Speed-lo.Speed)
	rev := float64(lo.RevTimeMS) + slope*float64(speed-lo.Speed)

	if rev < float64(m.minRevTimeMS) {
		return m.minRevTimeMS
	}
	return int(rev + 0.5)
}

// defaultSpeedSyncTable is the factory calibration for the reference
// sculpture: measured ms-per-rotation at each logical speed.
func defaultSpeedSyncTable() []SpeedSyncPair {
	return []SpeedSyncPair{
		{Speed: 100, RevTimeMS: 8000},
		{Speed: 200, RevTimeMS: 5600},
		{Speed: 300, RevTimeMS: 4400},
		{Speed: 400, RevTimeMS: 3600},
		{Speed: 500, RevTimeMS: 3000},
		{Speed: 600, RevTimeMS: 2600},
		{Speed: 700, RevTimeMS: 2250},
		{Speed: 800, RevTimeMS: 2000},
		{Speed: 900, RevTimeMS: 1800},
		{Speed: 1000, RevTimeMS: 1650},
	}
}
