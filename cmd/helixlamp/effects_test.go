package main

import (
	"math/rand"
	"testing"
	"time"
)

func testRenderer(t *testing.T) (*Renderer, *LightSync) {
	t.Helper()
	light := testLight(t)
	rng := rand.New(rand.NewSource(1))
	return newRenderer(light, rng, testLogger()), light
}

// advance runs the renderer past one step interval.
func advance(r *Renderer, light *LightSync, now time.Time, clockwise bool) time.Time {
	next := now.Add(light.StepInterval() + time.Millisecond)
	r.Tick(next, clockwise)
	return next
}

func TestRenderer_DefaultsToComet(t *testing.T) {
	r, _ := testRenderer(t)
	if r.Active() != EffectComet {
		t.Errorf("active = %v, want comet", r.Active())
	}
	if r.comet.length != defaultTailLength || r.comet.count != defaultTailCount {
		t.Errorf("comet defaults = length %d count %d, want %d/%d",
			r.comet.length, r.comet.count, defaultTailLength, defaultTailCount)
	}
}

func TestRenderer_SetTailsRejectsExcessiveCoverage(t *testing.T) {
	r, light := testRenderer(t)

	// 50*5 = 250 lit pixels on a 223-pixel logical strip.
	err := r.SetTails(0, 50, 5)
	if err == nil {
		t.Fatal("expected coverage rejection")
	}
	// Prior parameters must stay in force.
	if r.comet.length != defaultTailLength || r.comet.count != defaultTailCount {
		t.Errorf("rejected command changed parameters: length %d count %d",
			r.comet.length, r.comet.count)
	}

	// Right at the limit is accepted.
	limit := light.LogicalLEDs() * cometCoverageMaxPct / 100
	if err := r.SetTails(0, limit, 1); err != nil {
		t.Errorf("coverage at the limit rejected: %v", err)
	}
}

func TestRenderer_CometNeverWritesIntoVirtualGap(t *testing.T) {
	r, light := testRenderer(t)
	if err := r.SetTails(160, 12, 3); err != nil {
		t.Fatalf("SetTails: %v", err)
	}

	// Walk well past one full logical cycle in both directions. Any head
	// landing in the gap must be skipped, not wrapped or written out of
	// bounds (an out-of-range write would panic).
	now := time.Now()
	for i := 0; i < light.LogicalLEDs()+50; i++ {
		now = advance(r, light, now, true)
	}
	for i := 0; i < light.LogicalLEDs()+50; i++ {
		now = advance(r, light, now, false)
	}
	if len(r.Frame()) != light.PhysicalLEDs() {
		t.Errorf("frame length = %d, want %d", len(r.Frame()), light.PhysicalLEDs())
	}
}

func TestRenderer_CometDirectionFollowsMotorAndReverse(t *testing.T) {
	r, light := testRenderer(t)
	now := time.Now()

	start := r.comet.pos
	now = advance(r, light, now, true)
	if r.comet.pos != (start+1)%light.LogicalLEDs() {
		t.Errorf("clockwise step moved pos %d -> %d", start, r.comet.pos)
	}

	light.ToggleReverse()
	pos := r.comet.pos
	advance(r, light, now, true)
	want := ((pos-1)%light.LogicalLEDs() + light.LogicalLEDs()) % light.LogicalLEDs()
	if r.comet.pos != want {
		t.Errorf("reversed step moved pos %d -> %d, want %d", pos, r.comet.pos, want)
	}
}

func TestRenderer_FiniteBlinkHandsBackToComet(t *testing.T) {
	r, _ := testRenderer(t)
	t0 := time.Now()

	if err := r.StartBlink(0, 100, 100, 100, 2, t0); err != nil {
		t.Fatalf("StartBlink: %v", err)
	}
	if !r.FiniteBlinkActive() {
		t.Fatal("finite blink should be active")
	}

	// Mid-cycle the strip is lit.
	r.Tick(t0.Add(50*time.Millisecond), true)
	if (r.Frame()[0] == RGB{}) {
		t.Error("strip dark mid-blink")
	}

	// Past both cycles the effect must end, black out, and return to comet.
	r.Tick(t0.Add(450*time.Millisecond), true)
	if r.FiniteBlinkActive() {
		t.Error("finite blink still active after its cycles")
	}
	if r.Active() != EffectComet {
		t.Errorf("active = %v, want comet after blink", r.Active())
	}
	for i, px := range r.Frame() {
		if (px != RGB{}) {
			t.Fatalf("pixel %d not blacked out after blink: %+v", i, px)
		}
	}
}

func TestRenderer_InfiniteBlinkNeverReportsFinite(t *testing.T) {
	r, _ := testRenderer(t)
	t0 := time.Now()
	if err := r.StartBlink(96, 80, 200, 200, 0, t0); err != nil {
		t.Fatalf("StartBlink: %v", err)
	}
	if r.FiniteBlinkActive() {
		t.Error("count=0 blink must not gate the script engine")
	}
	// Still running long after many cycles.
	r.Tick(t0.Add(10*time.Second), true)
	if r.Active() != EffectBlink {
		t.Errorf("active = %v, want blink to keep looping", r.Active())
	}
}

func TestRenderer_BlinkRejectsNonPositiveRamps(t *testing.T) {
	r, _ := testRenderer(t)
	if err := r.StartBlink(0, 100, 0, 100, 1, time.Now()); err == nil {
		t.Error("expected rejection of zero up-ramp")
	}
	if err := r.StartBlink(0, 100, 100, -5, 1, time.Now()); err == nil {
		t.Error("expected rejection of negative down-ramp")
	}
}

func TestRenderer_EffectSwitchPreservesInactiveParams(t *testing.T) {
	r, _ := testRenderer(t)
	now := time.Now()

	if err := r.SetEffect("noise", []string{"ocean", "40", "15"}, now); err != nil {
		t.Fatalf("SetEffect noise: %v", err)
	}
	if err := r.SetEffect("fire", nil, now); err != nil {
		t.Fatalf("SetEffect fire: %v", err)
	}
	// Noise parameters survive while fire is active.
	if r.noise.paletteName != "ocean" || r.noise.speed != 40 || r.noise.scale != 15 {
		t.Errorf("noise params lost: %s/%d/%d", r.noise.paletteName, r.noise.speed, r.noise.scale)
	}
	if err := r.SetEffect("noise", nil, now); err != nil {
		t.Fatalf("SetEffect noise again: %v", err)
	}
	if r.noise.paletteName != "ocean" {
		t.Errorf("reselected noise lost palette: %s", r.noise.paletteName)
	}
}

func TestRenderer_SetEffectRejectsUnknownNamesAndPalettes(t *testing.T) {
	r, _ := testRenderer(t)
	now := time.Now()
	if err := r.SetEffect("plasma", nil, now); err == nil {
		t.Error("expected rejection of unknown effect")
	}
	if err := r.SetEffect("noise", []string{"neon"}, now); err == nil {
		t.Error("expected rejection of unknown palette")
	}
	if r.Active() != EffectComet {
		t.Errorf("rejected effect changed active kind to %v", r.Active())
	}
}

func TestRenderer_MarqueePattern(t *testing.T) {
	r, light := testRenderer(t)
	now := time.Now()
	if err := r.SetEffect("marquee", []string{"160", "4", "4"}, now); err != nil {
		t.Fatalf("SetEffect marquee: %v", err)
	}
	advance(r, light, now, true)

	lit, dark := 0, 0
	for _, px := range r.Frame() {
		if (px == RGB{}) {
			dark++
		} else {
			lit++
		}
	}
	// 4-on/4-off over 198 pixels: close to half and half.
	if lit < 90 || lit > 108 {
		t.Errorf("marquee lit %d of %d pixels, want about half", lit, len(r.Frame()))
	}
	if dark == 0 {
		t.Error("marquee has no dark pixels")
	}
}

func TestRenderer_RainbowRotatesHue(t *testing.T) {
	r, _ := testRenderer(t)
	t0 := time.Now()
	r.SetRainbow(t0)

	h0 := r.cometHue(t0)
	h1 := r.cometHue(t0.Add(time.Duration(rainbowStepMS*64) * time.Millisecond))
	if h0 == h1 {
		t.Error("rainbow hue did not advance over time")
	}
}

func TestRenderer_SineHueStaysInRange(t *testing.T) {
	r, _ := testRenderer(t)
	t0 := time.Now()
	r.SetSineHue(100, 140, t0)

	for ms := 0; ms <= sineHuePeriodMS; ms += 100 {
		h := r.cometHue(t0.Add(time.Duration(ms) * time.Millisecond))
		if h < 100 || h > 140 {
			t.Fatalf("sine hue %d at %dms outside [100..140]", h, ms)
		}
	}
}

func TestRenderer_SinePulseOscillatesWithinBounds(t *testing.T) {
	r, _ := testRenderer(t)
	t0 := time.Now()
	r.SetSinePulse(20, 80, t0)

	sawLow, sawHigh := false, false
	for ms := 0; ms <= sinePulsePeriodMS; ms += 50 {
		pct, ok := r.PulsePct(t0.Add(time.Duration(ms) * time.Millisecond))
		if !ok {
			t.Fatal("pulse inactive while set")
		}
		if pct < 20 || pct > 80 {
			t.Fatalf("pulse %d%% at %dms outside [20..80]", pct, ms)
		}
		if pct <= 25 {
			sawLow = true
		}
		if pct >= 75 {
			sawHigh = true
		}
	}
	if !sawLow || !sawHigh {
		t.Errorf("pulse did not sweep its range (low=%v high=%v)", sawLow, sawHigh)
	}

	r.ClearSinePulse()
	if _, ok := r.PulsePct(t0); ok {
		t.Error("pulse still reported after clear")
	}
}

func TestRenderer_ResetRestoresDefaultsAndBlacksOut(t *testing.T) {
	r, light := testRenderer(t)
	now := time.Now()

	_ = r.SetEffect("fire", nil, now)
	r.SetRainbow(now)
	r.SetSinePulse(10, 90, now)
	advance(r, light, now, true)

	r.Reset()

	if r.Active() != EffectComet {
		t.Errorf("active = %v after reset, want comet", r.Active())
	}
	if r.rainbow || r.sineHue.active || r.sinePulse.active {
		t.Error("modulators survived reset")
	}
	for i, px := range r.Frame() {
		if (px != RGB{}) {
			t.Fatalf("pixel %d lit after reset: %+v", i, px)
		}
	}
}

func TestRenderer_TwinkleWritesOnlyPhysicalPixels(t *testing.T) {
	r, light := testRenderer(t)
	now := time.Now()
	if err := r.SetEffect("twinkle", []string{"200", "80"}, now); err != nil {
		t.Fatalf("SetEffect twinkle: %v", err)
	}
	for i := 0; i < 100; i++ {
		now = now.Add(twinkleFrameMS * time.Millisecond)
		r.Tick(now, true)
	}
	if len(r.Frame()) != light.PhysicalLEDs() {
		t.Errorf("frame length changed: %d", len(r.Frame())) // structural sanity
	}
}
