package main

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
)

// ============================================================================
// Auto Composer - procedural show generation
// ============================================================================
//
// auto_mode asks for N minutes of show; the composer builds a command script
// up front so the operator can review it (auto_mode_debug prints without
// running). Scripts follow a musical arc:
//
//   intro -> { vibe, tension, climax } repeating -> cooldown
//
// with display brightness trending dim -> bright -> dim across the whole
// show, and motor_reverse marking every phase boundary.
//
// Constraints the composer must honor:
//   - generated motor speeds never fall below the stall floor while the
//     motor is meant to be moving
//   - single-scene holds are bounded so the sculpture never sits in one
//     state too long
//   - total command count is bounded by a memory budget estimate with a
//     hard cap, so a request for hours of show cannot exhaust memory
//
// The PRNG is injected so tests can replay a show deterministically.
// ============================================================================

// AutoComposer builds scripts for the script engine.
type AutoComposer struct {
	rng    *rand.Rand
	logger *slog.Logger
	model  *SpeedModel

	rampMS       int
	memoryBudget int
}

func newAutoComposer(rng *rand.Rand, model *SpeedModel, rampMS, memoryBudget int, logger *slog.Logger) *AutoComposer {
	if memoryBudget <= 0 {
		memoryBudget = autoMemoryBudget
	}
	return &AutoComposer{
		rng:          rng,
		logger:       logger,
		model:        model,
		rampMS:       rampMS,
		memoryBudget: memoryBudget,
	}
}

// maxCommands estimates how many command strings fit in the configured
// memory budget, capped hard. Falls back to a safe minimum if the budget is
// nonsensical.
func (a *AutoComposer) maxCommands() int {
	n := a.memoryBudget / autoCommandCostBytes
	if n <= 0 {
		return autoFallbackCommands
	}
	if n > autoHardCapCommands {
		return autoHardCapCommands
	}
	return n
}

type showPhase int

const (
	phaseVibe showPhase = iota
	phaseTension
	phaseClimax
)

// brightnessEnvelope returns the display brightness for a point in the show
// (progress 0..1): dim at the edges, peaking mid-show.
func brightnessEnvelope(progress float64) int {
	return 30 + int(65*math.Sin(math.Pi*progress))
}

// pickHues applies the composer's small color theory: mostly complementary
// pairs, sometimes analogous, sometimes monochromatic.
func (a *AutoComposer) pickHues() (bgHue, tailHue uint8) {
	base := uint8(a.rng.Intn(256))
	switch strategy := a.rng.Intn(100); {
	case strategy < 50: // complementary
		return base, base + 128
	case strategy < 80: // analogous
		return base, base + uint8(20+a.rng.Intn(21))
	default: // monochromatic
		return base, base
	}
}

func (a *AutoComposer) speedFor(phase showPhase) int {
	var lo, hi int
	switch phase {
	case phaseTension:
		lo, hi = 650, 850
	case phaseClimax:
		lo, hi = 800, 1000
	default:
		lo, hi = 500, 700
	}
	speed := lo + a.rng.Intn(hi-lo+1)
	if speed < motorStallFloor {
		speed = motorStallFloor
	}
	return speed
}

// GenerateScript builds a full show of approximately the requested duration.
func (a *AutoComposer) GenerateScript(minutes int) []string {
	if minutes <= 0 {
		return nil
	}

	total := minutes * 60000
	acc := 0
	limit := a.maxCommands()

	var script []string
	push := func(cmd string) { script = append(script, cmd) }
	pushHold := func(ms int) {
		push(fmt.Sprintf("hold:%d", ms))
		acc += ms
	}

	// --- Intro: clean slate, dim, get the sculpture moving ---
	push("system_reset")
	pushHold(1000)
	push("led_display_brightness:30")
	push(fmt.Sprintf("motor_speed:%d", a.speedFor(phaseVibe)))
	bg, tail := a.pickHues()
	push(fmt.Sprintf("led_background:%d,%d", bg, 10+a.rng.Intn(21)))
	push(fmt.Sprintf("led_tails:%d,%d,%d", tail, 8+a.rng.Intn(10), 1+a.rng.Intn(3)))
	pushHold(sceneMinHoldMS + a.rng.Intn(10000))

	// --- Main arc: vibe -> tension -> climax, repeating ---
	// Headroom covers the largest scene plus the cooldown block, so the
	// command cap holds even when the loop exits mid-arc.
	phase := phaseVibe
	for acc < total && len(script) < limit-10 {
		a.scene(phase, float64(acc)/float64(total), push, pushHold, total-acc)

		// Phase boundary: reversal is the punctuation mark. The hold covers
		// the down-ramp, flip and up-ramp plus a beat.
		next := (phase + 1) % 3
		if acc < total && len(script) < limit-10 {
			push("motor_reverse")
			pushHold(2*a.rampMS + 1000)
		}
		phase = next
	}

	// --- Cooldown: settle dim and slow; the engine regenerates from here ---
	push("led_display_brightness:25")
	push(fmt.Sprintf("motor_speed:%d", motorStallFloor))
	push(fmt.Sprintf("led_tails:%d,8,1", tail))
	pushHold(5000)

	a.logger.Info("auto script generated",
		"minutes", minutes,
		"commands", len(script),
		"planned_ms", acc,
		"command_limit", limit)
	return script
}

// scene emits one scene's worth of commands for a phase.
func (a *AutoComposer) scene(phase showPhase, progress float64, emit func(string), hold func(int), remaining int) {
	bg, tail := a.pickHues()

	// Brightness rides the show envelope, nudged up for climactic scenes.
	brightness := brightnessEnvelope(progress)
	if phase == phaseClimax {
		brightness += 10
	}
	if brightness > 100 {
		brightness = 100
	}
	emit(fmt.Sprintf("led_display_brightness:%d", brightness))
	emit(fmt.Sprintf("motor_speed:%d", a.speedFor(phase)))

	switch phase {
	case phaseTension:
		if a.rng.Intn(100) < 50 {
			emit(fmt.Sprintf("led_effect:twinkle,%d,%d", tail, 20+a.rng.Intn(30)))
		} else {
			pal := []string{"ocean", "forest", "cloud"}[a.rng.Intn(3)]
			emit(fmt.Sprintf("led_effect:noise,%s,%d,%d", pal, 20+a.rng.Intn(40), 8+a.rng.Intn(10)))
		}
		if a.rng.Intn(100) < 40 {
			emit(fmt.Sprintf("led_sine_hue:%d,%d", tail-30, tail+30))
		}
	case phaseClimax:
		switch a.rng.Intn(3) {
		case 0:
			emit("led_effect:fire")
		case 1:
			pal := []string{"lava", "party"}[a.rng.Intn(2)]
			emit(fmt.Sprintf("led_effect:noise,%s,%d,%d", pal, 40+a.rng.Intn(50), 10+a.rng.Intn(12)))
		default:
			emit(fmt.Sprintf("led_tails:%d,%d,%d", tail, 10+a.rng.Intn(15), 2+a.rng.Intn(4)))
			emit("led_rainbow")
		}
		emit(fmt.Sprintf("led_sine_pulse:%d,%d", 30+a.rng.Intn(20), 80+a.rng.Intn(21)))
	default: // vibe
		emit(fmt.Sprintf("led_background:%d,%d", bg, 10+a.rng.Intn(31)))
		emit(fmt.Sprintf("led_tails:%d,%d,%d", tail, 5+a.rng.Intn(20), 1+a.rng.Intn(4)))
		if a.rng.Intn(100) < 15 {
			emit("led_reverse")
		}
	}

	// Scene dwell, bounded both ways, trimmed to fit the remaining show.
	dwell := sceneMinHoldMS + a.rng.Intn(sceneMaxHoldMS-sceneMinHoldMS+1)
	if dwell > remaining && remaining > 1000 {
		dwell = remaining
	}
	hold(dwell)
}

// GenerateSteadyRotate builds the steady-rotation show: constant motor
// speed while the LED cycle time sweeps through a programmed ratio cycle
// around the true rotation time, making the tails lap and lag the helix.
func (a *AutoComposer) GenerateSteadyRotate(minutes int) []string {
	if minutes <= 0 {
		return nil
	}

	const speed = 600
	segmentMS := 10000
	ratios := []float64{1.0, 0.85, 0.7, 0.55, 0.7, 0.85, 1.0, 1.15, 1.3, 1.5, 1.3, 1.15}

	total := minutes * 60000
	acc := 0
	limit := a.maxCommands()
	rev := a.model.RevolutionTimeFor(speed)

	_, tail := a.pickHues()

	script := []string{
		"system_reset",
		"hold:1000",
		"led_display_brightness:50",
		fmt.Sprintf("motor_speed:%d", speed),
		fmt.Sprintf("hold:%d", a.rampMS+1000),
		fmt.Sprintf("led_tails:%d,12,3", tail),
	}
	acc += 1000 + a.rampMS + 1000

	for acc < total && len(script) < limit-2 {
		for _, ratio := range ratios {
			if acc >= total || len(script) >= limit-2 {
				break
			}
			cycle := int(float64(rev) * ratio)
			script = append(script, fmt.Sprintf("led_cycle_time:%d", cycle))
			dwell := segmentMS
			if remaining := total - acc; dwell > remaining && remaining > 1000 {
				dwell = remaining
			}
			script = append(script, fmt.Sprintf("hold:%d", dwell))
			acc += dwell
		}
	}

	a.logger.Info("steady rotate script generated",
		"minutes", minutes,
		"commands", len(script),
		"planned_ms", acc,
		"rev_time_ms", rev)
	return script
}
