package main

import (
	"log/slog"
	"time"
)

// ============================================================================
// Ramp Engine - non-blocking motor speed state machine
// ============================================================================
//
// The motor never jumps between speeds; every speed change is a timed ramp
// advanced from the tick loop. The engine is a three-state machine:
//
//   Idle -> RampingUp/RampingDown -> Idle
//                       \-> RampingUp (pending reversal: flip direction and
//                           ramp back to the speed setting without idling)
//
// Ramps are fixed-DURATION: the configured ramp time is divided by the step
// count, so a short hop and a full-range sweep both complete in roughly the
// same wall time. (A constant-rate policy existed historically; it made
// small adjustments feel sluggish and is intentionally not supported.)
//
// Single-writer discipline: only Tick and the command methods below mutate
// motor state, and both run on the daemon goroutine.
// ============================================================================

// RampPhase is the motor ramp state.
type RampPhase int

const (
	RampIdle RampPhase = iota
	RampingUp
	RampingDown
)

func (p RampPhase) String() string {
	switch p {
	case RampingUp:
		return "ramping_up"
	case RampingDown:
		return "ramping_down"
	default:
		return "idle"
	}
}

// MotorDriver is the physical actuation boundary. Implementations must not
// block; they are called from the tick path.
type MotorDriver interface {
	// SetDuty applies a duty cycle (0 = off).
	SetDuty(duty int) error
	// SetDirection selects rotation direction.
	SetDirection(clockwise bool) error
	Close() error
}

// rampEvent reports what a tick did, for logging and tests.
type rampEvent int

const (
	rampEventNone rampEvent = iota
	rampEventStep
	rampEventReversed
	rampEventCompleted
)

// RampEngine owns all motor state.
type RampEngine struct {
	model  *SpeedModel
	driver MotorDriver
	light  *LightSync
	logger *slog.Logger

	current      int  // logical speed right now
	target       int  // logical speed the ramp is heading to
	speedSetting int  // the user's chosen speed; start/reverse ramp to this
	clockwise    bool // current rotation direction
	phase        RampPhase
	running      bool // motor is meant to be moving (survives the reversal dip)

	pendingReverse bool // flip direction once the down-ramp lands

	rampDuration time.Duration // total time for one ramp maneuver
	stepDelay    time.Duration // per-step delay for the active ramp
	lastStep     time.Time

	// Diagnostics: where and when the active ramp began.
	rampStartSpeed int
	rampStartTime  time.Time

	defaultSpeed int
	reverseDip   int
}

func newRampEngine(model *SpeedModel, driver MotorDriver, light *LightSync, rampMS, defaultSpeed, reverseDip int, logger *slog.Logger) *RampEngine {
	return &RampEngine{
		model:        model,
		driver:       driver,
		light:        light,
		logger:       logger,
		clockwise:    true,
		phase:        RampIdle,
		rampDuration: time.Duration(rampMS) * time.Millisecond,
		speedSetting: defaultSpeed,
		defaultSpeed: defaultSpeed,
		reverseDip:   reverseDip,
	}
}

// CurrentSpeed returns the instantaneous logical speed.
func (r *RampEngine) CurrentSpeed() int { return r.current }

// Running reports whether the motor is meant to be moving.
func (r *RampEngine) Running() bool { return r.running }

// Clockwise reports the current rotation direction.
func (r *RampEngine) Clockwise() bool { return r.clockwise }

// Phase returns the ramp state.
func (r *RampEngine) Phase() RampPhase { return r.phase }

// SetRampDuration changes the total maneuver time for future ramps.
func (r *RampEngine) SetRampDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	r.rampDuration = d
}

// SetSpeed ramps to an absolute logical speed. Zero means stop.
func (r *RampEngine) SetSpeed(speed int, now time.Time) {
	if speed <= 0 {
		r.Stop(now)
		return
	}
	if speed > logicalSpeedMax {
		speed = logicalSpeedMax
	}
	r.speedSetting = speed
	r.running = true
	r.beginRamp(speed, now)
}

// Start ramps up to the stored speed setting.
func (r *RampEngine) Start(now time.Time) {
	r.running = true
	r.beginRamp(r.speedSetting, now)
}

// Stop ramps down to zero. The running flag drops only when zero is reached.
func (r *RampEngine) Stop(now time.Time) {
	r.pendingReverse = false
	r.beginRamp(0, now)
}

// Reverse flips rotation direction. While running this first ramps down to
// the reversal dip speed; the direction flip and the up-ramp back to the
// speed setting happen automatically when the dip is reached. When stopped
// it just flips direction and starts.
func (r *RampEngine) Reverse(now time.Time) {
	if r.running {
		r.pendingReverse = true
		r.beginRamp(r.reverseDip, now)
		return
	}
	r.clockwise = !r.clockwise
	if err := r.driver.SetDirection(r.clockwise); err != nil {
		r.logger.Error("motor set direction failed", "error", err)
	}
	r.Start(now)
}

// SpeedUp nudges the target up by one increment.
func (r *RampEngine) SpeedUp(now time.Time) {
	next := r.current + speedNudge
	if next > logicalSpeedMax {
		next = logicalSpeedMax
	}
	r.SetSpeed(next, now)
}

// SpeedDown nudges the target down by one increment; hitting zero stops.
func (r *RampEngine) SpeedDown(now time.Time) {
	next := r.current - speedNudge
	if next <= 0 {
		r.Stop(now)
		return
	}
	r.SetSpeed(next, now)
}

// HardStop cuts the motor immediately, bypassing the ramp. Used by
// system_off and system_reset.
func (r *RampEngine) HardStop() {
	r.current = 0
	r.target = 0
	r.phase = RampIdle
	r.running = false
	r.pendingReverse = false
	r.speedSetting = r.defaultSpeed
	if err := r.driver.SetDuty(0); err != nil {
		r.logger.Error("motor set duty failed", "error", err)
	}
	r.light.Resync(0)
}

// beginRamp retargets the state machine and recomputes timing. A ramp to the
// current speed is legal: it is zero-length and completes on the next tick.
func (r *RampEngine) beginRamp(target int, now time.Time) {
	r.target = target
	if target >= r.current {
		r.phase = RampingUp
	} else {
		r.phase = RampingDown
	}
	r.rampStartSpeed = r.current
	r.rampStartTime = now
	r.updateTiming()
	// Backdate so the first step fires on the next tick.
	r.lastStep = now.Add(-r.stepDelay)
}

// updateTiming divides the configured ramp duration across the steps of the
// pending maneuver. Distance does not change the total time, only the pace.
func (r *RampEngine) updateTiming() {
	distance := r.target - r.current
	if distance < 0 {
		distance = -distance
	}
	steps := distance / speedStep
	if distance%speedStep != 0 {
		steps++
	}
	if steps < 1 {
		steps = 1
	}
	r.stepDelay = r.rampDuration / time.Duration(steps)
	if r.stepDelay < minRampStepDelayMS*time.Millisecond {
		r.stepDelay = minRampStepDelayMS * time.Millisecond
	}
}

// Tick advances the ramp if due. It is a no-op while Idle or between steps.
func (r *RampEngine) Tick(now time.Time) rampEvent {
	if r.phase == RampIdle {
		return rampEventNone
	}
	if now.Sub(r.lastStep) < r.stepDelay {
		return rampEventNone
	}
	r.lastStep = now

	// One fixed-size step toward the target, clamped at the target.
	if r.current < r.target {
		r.current += speedStep
		if r.current > r.target {
			r.current = r.target
		}
	} else if r.current > r.target {
		r.current -= speedStep
		if r.current < r.target {
			r.current = r.target
		}
	}

	if err := r.driver.SetDuty(r.model.DutyFor(r.current)); err != nil {
		r.logger.Error("motor set duty failed", "error", err, "speed", r.current)
	}
	r.light.Resync(r.current)

	if r.current != r.target {
		return rampEventStep
	}

	// Target reached.
	if r.pendingReverse {
		r.pendingReverse = false
		r.clockwise = !r.clockwise
		if err := r.driver.SetDirection(r.clockwise); err != nil {
			r.logger.Error("motor set direction failed", "error", err)
		}
		r.logger.Info("motor direction reversed", "clockwise", r.clockwise, "resume_speed", r.speedSetting)
		r.beginRamp(r.speedSetting, now)
		return rampEventReversed
	}

	r.phase = RampIdle
	if r.current == 0 {
		r.running = false
		r.speedSetting = r.defaultSpeed
	}
	r.logger.Debug("ramp complete",
		"speed", r.current,
		"from", r.rampStartSpeed,
		"took", now.Sub(r.rampStartTime),
		"running", r.running)
	return rampEventCompleted
}
