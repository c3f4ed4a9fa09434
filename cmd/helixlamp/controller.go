package main

import (
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"
)

// ============================================================================
// Sculpture Controller - the aggregate that owns everything
// ============================================================================
//
// One controller owns all engine state; there are no package-level mutable
// globals. Concurrency contract:
//
//   - Transports (websocket, IPC, buttons) call Submit from their own
//     goroutines. Submit only enqueues the raw string on a bounded channel.
//   - Tick runs on the daemon goroutine and is the ONLY place state mutates.
//     It drains the queue, applies commands, advances the ramp, the script
//     and the renderer, and pushes frames.
//
// Per-tick order matters: commands first (so this tick sees them), then any
// deferred shutdown, then the motor ramp (which resyncs light timing), then
// the script (gated on the post-ramp settled state), then rendering.
// ============================================================================

// StripWriter is the pixel push boundary. Write receives the final,
// brightness-scaled frame.
type StripWriter interface {
	Write(frame []RGB) error
	Close() error
}

// SculptureController aggregates all engines and owned state.
type SculptureController struct {
	logger *slog.Logger

	model    *SpeedModel
	light    *LightSync
	ramp     *RampEngine
	renderer *Renderer
	script   *ScriptEngine
	composer *AutoComposer

	strip StripWriter

	// Two-level brightness: the global master survives resets so a venue
	// can dim the whole installation independent of any running show.
	globalPct  int
	displayPct int

	pendingOff  bool
	lastCommand string

	// Mirror of ramp.Running refreshed each tick, safe to read from the
	// button-input goroutine.
	motorOn atomic.Bool

	commands chan string
	scratch  []RGB
}

func newController(model *SpeedModel, motor MotorDriver, strip StripWriter, light *LightSync, rng *rand.Rand, rampMS, defaultSpeed, reverseDip, memoryBudget, commandBuffer int, logger *slog.Logger) *SculptureController {
	if commandBuffer <= 0 {
		commandBuffer = defaultCommandBuffer
	}
	renderer := newRenderer(light, rng, logger)
	composer := newAutoComposer(rng, model, rampMS, memoryBudget, logger)
	c := &SculptureController{
		logger:     logger,
		model:      model,
		light:      light,
		ramp:       newRampEngine(model, motor, light, rampMS, defaultSpeed, reverseDip, logger),
		renderer:   renderer,
		script:     newScriptEngine(composer, logger),
		composer:   composer,
		strip:      strip,
		globalPct:  defaultBrightness,
		displayPct: defaultBrightness,
		commands:   make(chan string, commandBuffer),
		scratch:    make([]RGB, light.PhysicalLEDs()),
	}
	return c
}

// Submit enqueues a raw command string from any goroutine. It never blocks;
// if the handoff queue is full the command is dropped and false returned.
func (c *SculptureController) Submit(raw string) bool {
	select {
	case c.commands <- raw:
		return true
	default:
		c.logger.Warn("command queue full, dropping", "command", raw)
		return false
	}
}

// LastCommand returns the last raw command the tick loop accepted.
func (c *SculptureController) LastCommand() string { return c.lastCommand }

// MotorRunning reports whether the motor is meant to be moving. Unlike the
// rest of the controller it may be called from any goroutine.
func (c *SculptureController) MotorRunning() bool { return c.motorOn.Load() }

// Tick advances the whole sculpture by one control-loop iteration.
func (c *SculptureController) Tick(now time.Time) {
	// system_off executes one tick after it was accepted, never inline from
	// a transport context.
	if c.pendingOff {
		c.pendingOff = false
		c.shutdownNow()
		return
	}

	// Drain queued transport commands. Bounded so a burst cannot starve the
	// ramp/render path within a single tick.
drain:
	for i := 0; i < 4; i++ {
		select {
		case raw := <-c.commands:
			c.handleRaw(raw, now)
		default:
			break drain
		}
	}

	c.ramp.Tick(now)
	c.motorOn.Store(c.ramp.Running())

	settled := c.ramp.Phase() == RampIdle && !c.renderer.FiniteBlinkActive()
	if raw, ok := c.script.Next(now, settled); ok {
		c.handleRaw(raw, now)
	}

	if c.renderer.Tick(now, c.ramp.Clockwise()) {
		c.push(now)
	}
}

// handleRaw parses and applies one wire command. Malformed input is logged
// and dropped with no state change.
func (c *SculptureController) handleRaw(raw string, now time.Time) {
	c.lastCommand = raw
	cmd, err := parseCommand(raw)
	if err != nil {
		c.logger.Warn("command dropped", "command", raw, "error", err)
		return
	}
	c.apply(cmd, now)
}

// apply mutates engine state for one typed command.
func (c *SculptureController) apply(cmd command, now time.Time) {
	c.logger.Debug("applying command", "command", cmd.String())

	switch v := cmd.(type) {
	case cmdMotorSpeed:
		c.ramp.SetSpeed(v.Speed, now)
	case cmdMotorRamp:
		c.ramp.SetRampDuration(time.Duration(v.MS) * time.Millisecond)
	case cmdMotorStart:
		c.ramp.Start(now)
	case cmdMotorStop:
		c.ramp.Stop(now)
	case cmdMotorReverse:
		c.ramp.Reverse(now)
	case cmdMotorSpeedUp:
		c.ramp.SpeedUp(now)
	case cmdMotorSpeedDown:
		c.ramp.SpeedDown(now)

	case cmdGlobalBrightness:
		// Accepted even mid-script; venue dimming is independent of shows.
		c.globalPct = clampInt(v.Pct, 0, 100)
		c.push(now)
	case cmdDisplayBrightness:
		c.displayPct = clampInt(v.Pct, 0, 100)
		c.renderer.ClearSinePulse()
		c.push(now)

	case cmdBackground:
		c.renderer.SetBackground(v.Hue, v.Level)
	case cmdTails:
		if err := c.renderer.SetTails(v.Hue, v.Length, v.Count); err != nil {
			c.logger.Warn("led_tails rejected", "error", err)
		}
	case cmdCycleTime:
		c.light.SetCycleTime(v.MS, c.ramp.CurrentSpeed())
	case cmdCycleUp:
		c.light.Nudge(true, c.ramp.CurrentSpeed())
	case cmdCycleDown:
		c.light.Nudge(false, c.ramp.CurrentSpeed())
	case cmdLedReverse:
		c.light.ToggleReverse()

	case cmdBlink:
		if err := c.renderer.StartBlink(v.Hue, v.Level, v.UpMS, v.DownMS, v.Count, now); err != nil {
			c.logger.Warn("led_blink rejected", "error", err)
		}
	case cmdSineHue:
		c.renderer.SetSineHue(v.Low, v.High, now)
	case cmdSinePulse:
		c.renderer.SetSinePulse(v.Low, v.High, now)
	case cmdRainbow:
		c.renderer.SetRainbow(now)
	case cmdEffect:
		if err := c.renderer.SetEffect(v.Name, v.Args, now); err != nil {
			c.logger.Warn("led_effect rejected", "error", err)
		}

	case cmdLedReset:
		c.resetLEDs()
	case cmdSystemReset:
		// Full reset, except the global master brightness and any running
		// script (auto scripts open with system_reset themselves).
		c.ramp.HardStop()
		c.resetLEDs()
	case cmdSystemOff:
		c.pendingOff = true

	case cmdRunScript:
		cmds, ok := builtinScripts[v.Name]
		if !ok {
			c.logger.Warn("unknown script", "name", v.Name)
			return
		}
		c.script.Run(cmds, AutoNone, 0, now)
	case cmdAutoMode:
		script := c.composer.GenerateScript(v.Minutes)
		for _, line := range script {
			c.logger.Info("auto script line", "command", line)
		}
		if v.Debug {
			return
		}
		c.script.Run(script, AutoNormal, v.Minutes, now)
	case cmdSteadyRotate:
		script := c.composer.GenerateSteadyRotate(v.Minutes)
		c.script.Run(script, AutoSteadyRotate, v.Minutes, now)

	case cmdHold, cmdComment:
		// Script-only; harmless over a transport.
	}
}

// resetLEDs restores LED defaults. The global master is not touched.
func (c *SculptureController) resetLEDs() {
	c.renderer.Reset()
	c.light.Reset(c.ramp.CurrentSpeed())
	c.displayPct = defaultBrightness
	c.push(time.Time{})
}

// shutdownNow stops everything: script, motor (no ramp), lights.
func (c *SculptureController) shutdownNow() {
	c.logger.Info("system off")
	c.script.Stop()
	c.ramp.HardStop()
	c.renderer.Reset()
	c.push(time.Time{})
}

// effectiveBrightness combines the display scalar (possibly oscillated by
// led_sine_pulse) with the global master.
func (c *SculptureController) effectiveBrightness(now time.Time) float64 {
	display := c.displayPct
	if pct, ok := c.renderer.PulsePct(now); ok {
		display = pct
	}
	return float64(display) / 100.0 * float64(c.globalPct) / 100.0
}

// push scales the rendered frame by the effective brightness and hands it to
// the strip. Brightness lives only here, at the hardware boundary, so a
// brightness command changes every effect instantly.
func (c *SculptureController) push(now time.Time) {
	scale := c.effectiveBrightness(now)
	frame := c.renderer.Frame()
	for i, p := range frame {
		c.scratch[i] = RGB{
			R: uint8(float64(p.R) * scale),
			G: uint8(float64(p.G) * scale),
			B: uint8(float64(p.B) * scale),
		}
	}
	if err := c.strip.Write(c.scratch); err != nil {
		c.logger.Error("strip write failed", "error", err)
	}
}
