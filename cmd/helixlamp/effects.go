package main

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strconv"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// ============================================================================
// Effect Renderer - mutually exclusive strip animations
// ============================================================================
//
// Exactly one effect is active at a time. Each effect owns its parameters
// and its own cadence timer, so switching effects never disturbs another
// effect's settings - they stay inert until reselected.
//
// Rotation-synced effects (comet, marquee) step at the LightSync interval;
// the rest run on fixed frame clocks. Rendering writes raw colors only: the
// display*global brightness scalar is applied at the push boundary by the
// controller, never here.
//
// Three overlay modulators ride on top of the comet effect (rainbow hue
// rotation, sine hue oscillation) and on display brightness (sine pulse).
// They mirror the led_rainbow / led_sine_hue / led_sine_pulse commands.
// ============================================================================

// EffectKind tags the active effect.
type EffectKind int

const (
	EffectComet EffectKind = iota
	EffectBlink
	EffectNoise
	EffectFire
	EffectTwinkle
	EffectMarquee
)

func (k EffectKind) String() string {
	switch k {
	case EffectBlink:
		return "blink"
	case EffectNoise:
		return "noise"
	case EffectFire:
		return "fire"
	case EffectTwinkle:
		return "twinkle"
	case EffectMarquee:
		return "marquee"
	default:
		return "comet"
	}
}

type cometState struct {
	hue    uint8
	length int // fade tail length in pixels
	count  int // number of evenly spaced heads
	pos    int // logical position of the lead head
	bgHue  uint8
	bgLvl  int // background level, percent
	last   time.Time
}

type blinkState struct {
	hue        uint8
	levelPct   int
	up, down   time.Duration
	count      int // 0 = loop forever
	cycles     int
	cycleStart time.Time
	active     bool
	last       time.Time
}

type noiseState struct {
	paletteName string
	pal         palette
	speed       int // 1..100
	scale       int // 1..100
	z           float64
	last        time.Time
}

type fireState struct {
	heat     []uint8
	cooling  int
	sparking int
	last     time.Time
}

type twinkleState struct {
	hue     uint8
	density int // spark probability percent per frame
	last    time.Time
}

type marqueeState struct {
	hue       uint8
	lit, dark int
	offset    int
	last      time.Time
}

type sineHueMod struct {
	active    bool
	low, high uint8
	start     time.Time
}

type sinePulseMod struct {
	active    bool
	low, high int // percent
	start     time.Time
}

// Renderer owns the frame buffer and all effect state.
type Renderer struct {
	light  *LightSync
	rng    *rand.Rand
	logger *slog.Logger

	frame []RGB // one entry per physical LED

	active EffectKind

	comet   cometState
	blink   blinkState
	noise   noiseState
	fire    fireState
	twinkle twinkleState
	marquee marqueeState

	rainbow      bool
	rainbowStart time.Time
	sineHue      sineHueMod
	sinePulse    sinePulseMod

	noiseGen opensimplex.Noise
}

func newRenderer(light *LightSync, rng *rand.Rand, logger *slog.Logger) *Renderer {
	r := &Renderer{
		light:    light,
		rng:      rng,
		logger:   logger,
		frame:    make([]RGB, light.PhysicalLEDs()),
		noiseGen: opensimplex.NewNormalized(rng.Int63()),
	}
	r.applyDefaults()
	return r
}

func (r *Renderer) applyDefaults() {
	r.active = EffectComet
	r.comet = cometState{
		hue:    defaultTailHue,
		length: defaultTailLength,
		count:  defaultTailCount,
		bgLvl:  defaultBgLevelPct,
	}
	r.blink = blinkState{}
	r.noise = noiseState{paletteName: "rainbow", pal: palettes["rainbow"], speed: 20, scale: 10}
	r.fire = fireState{heat: make([]uint8, r.light.PhysicalLEDs()), cooling: 55, sparking: 120}
	r.twinkle = twinkleState{hue: defaultTailHue, density: 25}
	r.marquee = marqueeState{hue: defaultTailHue, lit: 4, dark: 4}
	r.rainbow = false
	r.sineHue = sineHueMod{}
	r.sinePulse = sinePulseMod{}
}

// Reset restores effect defaults and blacks out the strip.
func (r *Renderer) Reset() {
	r.applyDefaults()
	r.Blackout()
}

// Frame exposes the current pixel buffer (physical LEDs only).
func (r *Renderer) Frame() []RGB { return r.frame }

// Blackout clears every pixel.
func (r *Renderer) Blackout() {
	for i := range r.frame {
		r.frame[i] = RGB{}
	}
}

// Active returns the selected effect.
func (r *Renderer) Active() EffectKind { return r.active }

// FiniteBlinkActive reports whether a counted blink is still running. The
// script engine uses this to wait for visually settled moments.
func (r *Renderer) FiniteBlinkActive() bool {
	return r.active == EffectBlink && r.blink.active && r.blink.count > 0
}

// SetTails configures the comet effect and makes it active. Configurations
// lighting more than cometCoverageMaxPct of the logical strip are rejected
// outright to bound power draw; prior parameters stay in force.
func (r *Renderer) SetTails(hue uint8, length, count int) error {
	if length < 1 || count < 0 {
		return fmt.Errorf("invalid tail geometry length=%d count=%d", length, count)
	}
	coverage := length * count
	limit := r.light.LogicalLEDs() * cometCoverageMaxPct / 100
	if coverage > limit {
		return fmt.Errorf("tail coverage %d pixels exceeds %d%% of strip (%d)", coverage, cometCoverageMaxPct, limit)
	}
	r.comet.hue = hue
	r.comet.length = length
	r.comet.count = count
	r.active = EffectComet
	// An explicit hue choice ends any hue modulation.
	r.rainbow = false
	r.sineHue.active = false
	return nil
}

// SetBackground sets the comet background color and level (percent).
func (r *Renderer) SetBackground(hue uint8, levelPct int) {
	r.comet.bgHue = hue
	r.comet.bgLvl = clampInt(levelPct, 0, 100)
}

// StartBlink activates the full-strip pulse effect. count==0 loops forever.
func (r *Renderer) StartBlink(hue uint8, levelPct, upMS, downMS, count int, now time.Time) error {
	if upMS <= 0 || downMS <= 0 {
		return fmt.Errorf("blink ramp durations must be positive (up=%d down=%d)", upMS, downMS)
	}
	r.blink = blinkState{
		hue:        hue,
		levelPct:   clampInt(levelPct, 0, 100),
		up:         time.Duration(upMS) * time.Millisecond,
		down:       time.Duration(downMS) * time.Millisecond,
		count:      count,
		cycleStart: now,
		active:     true,
	}
	r.active = EffectBlink
	return nil
}

// SetRainbow starts continuous hue rotation on the comet effect.
func (r *Renderer) SetRainbow(now time.Time) {
	r.rainbow = true
	r.rainbowStart = now
	r.sineHue.active = false
	r.active = EffectComet
}

// SetSineHue oscillates the comet hue between low and high.
func (r *Renderer) SetSineHue(low, high uint8, now time.Time) {
	r.sineHue = sineHueMod{active: true, low: low, high: high, start: now}
	r.rainbow = false
	r.active = EffectComet
}

// SetSinePulse oscillates display brightness between low and high percent.
func (r *Renderer) SetSinePulse(low, high int, now time.Time) {
	r.sinePulse = sinePulseMod{
		active: true,
		low:    clampInt(low, 0, 100),
		high:   clampInt(high, 0, 100),
		start:  now,
	}
}

// ClearSinePulse stops the brightness oscillation.
func (r *Renderer) ClearSinePulse() { r.sinePulse.active = false }

// PulsePct returns the oscillated display brightness while led_sine_pulse is
// active.
func (r *Renderer) PulsePct(now time.Time) (int, bool) {
	if !r.sinePulse.active {
		return 0, false
	}
	osc := (math.Sin(2*math.Pi*float64(now.Sub(r.sinePulse.start))/float64(sinePulsePeriodMS*time.Millisecond)) + 1) / 2
	return r.sinePulse.low + int(osc*float64(r.sinePulse.high-r.sinePulse.low)+0.5), true
}

// SetEffect selects an effect by wire name with optional parameters.
func (r *Renderer) SetEffect(name string, args []string, now time.Time) error {
	switch name {
	case "comet":
		r.active = EffectComet
	case "blink":
		if !r.blink.active {
			r.blink.cycleStart = now
			r.blink.cycles = 0
			r.blink.active = true
		}
		r.active = EffectBlink
	case "noise":
		if len(args) > 0 {
			pal, ok := palettes[args[0]]
			if !ok {
				return fmt.Errorf("unknown palette %q", args[0])
			}
			r.noise.paletteName = args[0]
			r.noise.pal = pal
		}
		if len(args) > 1 {
			v, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("noise speed: %w", err)
			}
			r.noise.speed = clampInt(v, 1, 100)
		}
		if len(args) > 2 {
			v, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("noise scale: %w", err)
			}
			r.noise.scale = clampInt(v, 1, 100)
		}
		r.active = EffectNoise
	case "fire":
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("fire cooling: %w", err)
			}
			r.fire.cooling = clampInt(v, 1, 255)
		}
		if len(args) > 1 {
			v, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("fire sparking: %w", err)
			}
			r.fire.sparking = clampInt(v, 1, 255)
		}
		r.active = EffectFire
	case "twinkle":
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("twinkle hue: %w", err)
			}
			r.twinkle.hue = uint8(v)
		}
		if len(args) > 1 {
			v, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("twinkle density: %w", err)
			}
			r.twinkle.density = clampInt(v, 1, 100)
		}
		r.active = EffectTwinkle
	case "marquee":
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("marquee hue: %w", err)
			}
			r.marquee.hue = uint8(v)
		}
		if len(args) > 1 {
			v, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("marquee lit width: %w", err)
			}
			r.marquee.lit = clampInt(v, 1, r.light.PhysicalLEDs())
		}
		if len(args) > 2 {
			v, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("marquee dark width: %w", err)
			}
			r.marquee.dark = clampInt(v, 1, r.light.PhysicalLEDs())
		}
		r.active = EffectMarquee
	default:
		return fmt.Errorf("unknown effect %q", name)
	}
	return nil
}

// Tick renders the active effect if its cadence is due. It returns true when
// the frame changed and should be pushed.
func (r *Renderer) Tick(now time.Time, motorClockwise bool) bool {
	switch r.active {
	case EffectBlink:
		return r.tickBlink(now)
	case EffectNoise:
		return r.tickNoise(now)
	case EffectFire:
		return r.tickFire(now)
	case EffectTwinkle:
		return r.tickTwinkle(now)
	case EffectMarquee:
		return r.tickMarquee(now, motorClockwise)
	default:
		return r.tickComet(now, motorClockwise)
	}
}

// cometHue resolves the effective head hue after modulators.
func (r *Renderer) cometHue(now time.Time) uint8 {
	if r.rainbow {
		steps := now.Sub(r.rainbowStart) / (rainbowStepMS * time.Millisecond)
		return r.comet.hue + uint8(steps)
	}
	if r.sineHue.active {
		span := int(uint8(r.sineHue.high - r.sineHue.low)) // wraps around the wheel
		osc := (math.Sin(2*math.Pi*float64(now.Sub(r.sineHue.start))/float64(sineHuePeriodMS*time.Millisecond)) + 1) / 2
		return r.sineHue.low + uint8(osc*float64(span)+0.5)
	}
	return r.comet.hue
}

func (r *Renderer) tickComet(now time.Time, motorClockwise bool) bool {
	if now.Sub(r.comet.last) < r.light.StepInterval() {
		return false
	}
	r.comet.last = now

	// Fade everything, then lay the background in with a lighten blend so
	// still-hot comet pixels stay above it.
	fade := uint8(255 / r.comet.length)
	var bg RGB
	if r.comet.bgLvl > 0 {
		bg = hueToRGB(r.comet.bgHue, uint8(r.comet.bgLvl*255/100))
	}
	for i := range r.frame {
		r.frame[i] = lighten(fadeToBlack(r.frame[i], fade), bg)
	}

	// Animation direction follows the motor unless the operator reversed it.
	logical := r.light.LogicalLEDs()
	if motorClockwise != r.light.Reversed() {
		r.comet.pos++
	} else {
		r.comet.pos--
	}
	r.comet.pos = ((r.comet.pos % logical) + logical) % logical

	if r.comet.count == 0 {
		return true
	}

	head := hueToRGB(r.cometHue(now), 255)
	spacing := logical / r.comet.count
	for k := 0; k < r.comet.count; k++ {
		idx := (r.comet.pos + k*spacing) % logical
		// Logical positions inside the virtual gap have no pixel behind them.
		if idx < r.light.PhysicalLEDs() {
			r.frame[idx] = head
		}
	}
	return true
}

func (r *Renderer) tickBlink(now time.Time) bool {
	if !r.blink.active {
		return false
	}
	if now.Sub(r.blink.last) < blinkFrameMS*time.Millisecond {
		return false
	}
	r.blink.last = now

	cycle := r.blink.up + r.blink.down
	elapsed := now.Sub(r.blink.cycleStart)
	for elapsed >= cycle {
		elapsed -= cycle
		r.blink.cycleStart = r.blink.cycleStart.Add(cycle)
		r.blink.cycles++
		if r.blink.count > 0 && r.blink.cycles >= r.blink.count {
			// Finished: hand the strip back to the comet effect.
			r.blink.active = false
			r.active = EffectComet
			r.Blackout()
			return true
		}
	}

	var frac float64
	if elapsed < r.blink.up {
		frac = float64(elapsed) / float64(r.blink.up)
	} else {
		frac = 1 - float64(elapsed-r.blink.up)/float64(r.blink.down)
	}
	c := hueToRGB(r.blink.hue, uint8(frac*float64(r.blink.levelPct)*255/100))
	for i := range r.frame {
		r.frame[i] = c
	}
	return true
}

func (r *Renderer) tickNoise(now time.Time) bool {
	if now.Sub(r.noise.last) < noiseFrameMS*time.Millisecond {
		return false
	}
	r.noise.last = now

	xScale := float64(r.noise.scale) * 0.002
	for i := range r.frame {
		v := r.noiseGen.Eval2(float64(i)*xScale, r.noise.z)
		r.frame[i] = r.noise.pal.sample(v)
	}
	r.noise.z += float64(r.noise.speed) * 0.0005
	return true
}

// tickFire runs a heat-diffusion simulation. The diffusion is deliberately
// asymmetric - each cell averages itself with the TWO cells below it,
// weighted toward the lower (cooler-fed) neighbor - which is what makes the
// flames appear to rise.
func (r *Renderer) tickFire(now time.Time) bool {
	if now.Sub(r.fire.last) < fireFrameMS*time.Millisecond {
		return false
	}
	r.fire.last = now

	heat := r.fire.heat
	n := len(heat)

	// Cool every cell a little, probabilistically.
	for i := 0; i < n; i++ {
		cool := r.rng.Intn(r.fire.cooling*10/n + 2)
		if cool >= int(heat[i]) {
			heat[i] = 0
		} else {
			heat[i] -= uint8(cool)
		}
	}

	// Drift heat upward.
	for k := n - 1; k >= 2; k-- {
		heat[k] = uint8((int(heat[k-1]) + 2*int(heat[k-2])) / 3)
	}

	// Random new sparks near the base.
	if r.rng.Intn(255) < r.fire.sparking {
		y := r.rng.Intn(7)
		spark := int(heat[y]) + 160 + r.rng.Intn(96)
		if spark > 255 {
			spark = 255
		}
		heat[y] = uint8(spark)
	}

	for i := 0; i < n; i++ {
		r.frame[i] = heatToRGB(heat[i])
	}
	return true
}

func (r *Renderer) tickTwinkle(now time.Time) bool {
	if now.Sub(r.twinkle.last) < twinkleFrameMS*time.Millisecond {
		return false
	}
	r.twinkle.last = now

	for i := range r.frame {
		r.frame[i] = fadeToBlack(r.frame[i], 20)
	}

	// A handful of spark attempts per frame, scaled to strip length.
	attempts := 1 + len(r.frame)/64
	for a := 0; a < attempts; a++ {
		if r.rng.Intn(100) < r.twinkle.density {
			idx := r.rng.Intn(len(r.frame))
			// Slight hue scatter keeps the sparkles from looking uniform.
			h := r.twinkle.hue + uint8(r.rng.Intn(17)) - 8
			r.frame[idx] = hueToRGB(h, 255)
		}
	}
	return true
}

func (r *Renderer) tickMarquee(now time.Time, motorClockwise bool) bool {
	if now.Sub(r.marquee.last) < r.light.StepInterval() {
		return false
	}
	r.marquee.last = now

	period := r.marquee.lit + r.marquee.dark
	if motorClockwise != r.light.Reversed() {
		r.marquee.offset++
	} else {
		r.marquee.offset--
	}
	r.marquee.offset = ((r.marquee.offset % period) + period) % period

	on := hueToRGB(r.marquee.hue, 255)
	for i := range r.frame {
		if (i+r.marquee.offset)%period < r.marquee.lit {
			r.frame[i] = on
		} else {
			r.frame[i] = RGB{}
		}
	}
	return true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
