package main

// Logical speed domain
const (
	logicalSpeedMax = 1000 // top of the abstract speed scale
	speedStep       = 10   // ramp step magnitude in logical units
	speedNudge      = 100  // motor_speed_up / motor_speed_down increment
)

// Physical actuation defaults (8-bit duty domain)
const (
	defaultDutyMin = 70  // below this the motor stalls (dead zone)
	defaultDutyMax = 255 // full duty
)

// Motor defaults
const (
	defaultRampMS       = 4000 // full ramp duration (ms), motor_ramp adjustable
	defaultMotorSpeed   = 500  // speed setting restored whenever the motor idles at zero
	defaultReverseDip   = 0    // intermediate speed to ramp down to before flipping direction
	motorStallFloor     = 500  // lowest speed the composer may command while the motor runs
	minRampStepDelayMS  = 1    // per-step delay never goes below one tick
	defaultMinRevTimeMS = 500  // floor for calibrated revolution time (ms)
)

// LED strip geometry. The sculpture has a mechanical dead region with no
// LEDs; the logical count pads the physical count so cycling positions can
// pass "through" it.
const (
	defaultPhysicalLEDs = 198
	defaultVirtualGap   = 25
)

// LED behavior defaults
const (
	cycleNudgePct       = 8   // led_cycle_up / led_cycle_down step (%)
	cometCoverageMaxPct = 80  // led_tails rejected above this strip coverage
	defaultTailLength   = 12
	defaultTailCount    = 3
	defaultTailHue      = 160 // blue-ish
	defaultBgLevelPct   = 0
	defaultBrightness   = 100 // percent, both global master and display
)

// Effect cadences (ms) for effects that do not follow the rotation-synced
// step interval.
const (
	blinkFrameMS   = 10
	fireFrameMS    = 30
	noiseFrameMS   = 20
	twinkleFrameMS = 30
)

// Overlay modulator periods (ms)
const (
	sineHuePeriodMS   = 5000
	sinePulsePeriodMS = 4000
	rainbowStepMS     = 50
)

// AutoComposer sizing. Generated scripts are bounded by an estimated
// per-command memory cost against a budget, with a hard cap on top.
const (
	autoCommandCostBytes = 48
	autoHardCapCommands  = 2000
	autoFallbackCommands = 100
	sceneMinHoldMS       = 15000
	sceneMaxHoldMS       = 45000
	autoMemoryBudget     = 96 * 1024
)

// Control loop defaults
const (
	defaultUpdateHz      = 500 // 2ms tick
	defaultCommandBuffer = 16  // bounded transport -> tick-loop handoff
)

// Linux input event types and codes (from <linux/input.h>) used for the
// front-panel buttons.
const (
	evKey = 0x01

	keyPlayPause = 164 // start/stop toggle button
	keyStopCD    = 166 // hard stop button
	keyNextSong  = 163 // reverse button
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)
