package main

import "time"

// ============================================================================
// Light Sync - deriving the LED step interval from motor speed
// ============================================================================
//
// The animation position should visually track the sculpture's rotation.
// In automatic mode the per-step interval is the estimated revolution time
// at the current speed divided by the logical LED count (physical strip plus
// the virtual gap), so one full animation cycle lines up with one mechanical
// rotation.
//
// A manual override (led_cycle_time) lets the operator pick an absolute
// full-cycle time instead. The override is not a frozen interval: the speed
// at which it was set is captured as a reference, and later resyncs scale
// the interval by (reference speed / new speed). The operator's chosen
// LED-to-rotation ratio therefore survives speed changes.
// ============================================================================

// LightSync owns the animation timing state.
type LightSync struct {
	model        *SpeedModel
	physicalLEDs int
	logicalLEDs  int // physical + virtual gap

	stepIntervalMS float64

	manual         bool
	manualBaseMS   float64 // per-step interval captured at override time
	manualRefSpeed int     // speed at override time
	reversed       bool    // animation runs against motor direction
}

func newLightSync(model *SpeedModel, physicalLEDs, virtualGap int) *LightSync {
	l := &LightSync{
		model:        model,
		physicalLEDs: physicalLEDs,
		logicalLEDs:  physicalLEDs + virtualGap,
	}
	l.Resync(0)
	return l
}

// PhysicalLEDs returns the number of real pixels on the strip.
func (l *LightSync) PhysicalLEDs() int { return l.physicalLEDs }

// LogicalLEDs returns the cycling domain size (physical + virtual gap).
func (l *LightSync) LogicalLEDs() int { return l.logicalLEDs }

// StepInterval returns the current per-step animation interval.
func (l *LightSync) StepInterval() time.Duration {
	return time.Duration(l.stepIntervalMS * float64(time.Millisecond))
}

// Reversed reports whether the animation runs against the motor direction.
func (l *LightSync) Reversed() bool { return l.reversed }

// ToggleReverse flips the animation direction relative to the motor.
func (l *LightSync) ToggleReverse() { l.reversed = !l.reversed }

// Resync recomputes the step interval for a new logical speed. Called by the
// ramp engine after every ramp step.
func (l *LightSync) Resync(speed int) {
	if l.manual {
		// Preserve the operator's sync ratio: scale the captured interval by
		// how far the speed moved from the reference. At zero speed the last
		// interval is simply kept (nothing rotates to sync against).
		if speed > 0 && l.manualRefSpeed > 0 {
			l.stepIntervalMS = l.manualBaseMS * float64(l.manualRefSpeed) / float64(speed)
		}
		return
	}
	rev := l.model.RevolutionTimeFor(speed)
	l.stepIntervalMS = float64(rev) / float64(l.logicalLEDs)
}

// SetCycleTime activates the manual override with an absolute full-cycle
// time, capturing the current speed as the scaling reference.
func (l *LightSync) SetCycleTime(cycleMS int, currentSpeed int) {
	if cycleMS <= 0 {
		return
	}
	l.manual = true
	l.manualBaseMS = float64(cycleMS) / float64(l.logicalLEDs)
	l.manualRefSpeed = currentSpeed
	l.stepIntervalMS = l.manualBaseMS
}

// Nudge speeds up (faster=true) or slows down the cycle by a fixed
// percentage, re-capturing the current interval and speed as the new manual
// reference.
func (l *LightSync) Nudge(faster bool, currentSpeed int) {
	factor := 1.0 + float64(cycleNudgePct)/100.0
	if faster {
		factor = 1.0 - float64(cycleNudgePct)/100.0
	}
	l.stepIntervalMS *= factor
	l.manual = true
	l.manualBaseMS = l.stepIntervalMS
	l.manualRefSpeed = currentSpeed
}

// ClearOverride drops the manual override and returns to automatic sync.
func (l *LightSync) ClearOverride(currentSpeed int) {
	l.manual = false
	l.manualBaseMS = 0
	l.manualRefSpeed = 0
	l.Resync(currentSpeed)
}

// Reset restores default sync state (automatic, same direction as motor).
func (l *LightSync) Reset(currentSpeed int) {
	l.reversed = false
	l.ClearOverride(currentSpeed)
}
