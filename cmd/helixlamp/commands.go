package main

import "fmt"

// ============================================================================
// Typed commands
// ============================================================================
//
// The wire protocol stays textual ("name" or "name:a,b,..."), but every
// string is parsed into one of these variants at the boundary. Internal code
// never re-parses strings; it switches on types.
// ============================================================================

// command is the marker interface for all parsed commands.
type command interface {
	commandMarker()
	String() string
}

type cmdMotorSpeed struct{ Speed int }

func (cmdMotorSpeed) commandMarker()   {}
func (c cmdMotorSpeed) String() string { return fmt.Sprintf("motor_speed(%d)", c.Speed) }

type cmdMotorRamp struct{ MS int }

func (cmdMotorRamp) commandMarker()   {}
func (c cmdMotorRamp) String() string { return fmt.Sprintf("motor_ramp(%dms)", c.MS) }

type cmdMotorStart struct{}

func (cmdMotorStart) commandMarker() {}
func (cmdMotorStart) String() string { return "motor_start" }

type cmdMotorStop struct{}

func (cmdMotorStop) commandMarker() {}
func (cmdMotorStop) String() string { return "motor_stop" }

type cmdMotorReverse struct{}

func (cmdMotorReverse) commandMarker() {}
func (cmdMotorReverse) String() string { return "motor_reverse" }

type cmdMotorSpeedUp struct{}

func (cmdMotorSpeedUp) commandMarker() {}
func (cmdMotorSpeedUp) String() string { return "motor_speed_up" }

type cmdMotorSpeedDown struct{}

func (cmdMotorSpeedDown) commandMarker() {}
func (cmdMotorSpeedDown) String() string { return "motor_speed_down" }

type cmdGlobalBrightness struct{ Pct int }

func (cmdGlobalBrightness) commandMarker() {}
func (c cmdGlobalBrightness) String() string {
	return fmt.Sprintf("led_global_brightness(%d%%)", c.Pct)
}

type cmdDisplayBrightness struct{ Pct int }

func (cmdDisplayBrightness) commandMarker() {}
func (c cmdDisplayBrightness) String() string {
	return fmt.Sprintf("led_display_brightness(%d%%)", c.Pct)
}

type cmdBackground struct {
	Hue   uint8
	Level int
}

func (cmdBackground) commandMarker() {}
func (c cmdBackground) String() string {
	return fmt.Sprintf("led_background(hue=%d level=%d%%)", c.Hue, c.Level)
}

type cmdTails struct {
	Hue    uint8
	Length int
	Count  int
}

func (cmdTails) commandMarker() {}
func (c cmdTails) String() string {
	return fmt.Sprintf("led_tails(hue=%d len=%d count=%d)", c.Hue, c.Length, c.Count)
}

type cmdCycleTime struct{ MS int }

func (cmdCycleTime) commandMarker()   {}
func (c cmdCycleTime) String() string { return fmt.Sprintf("led_cycle_time(%dms)", c.MS) }

type cmdCycleUp struct{}

func (cmdCycleUp) commandMarker() {}
func (cmdCycleUp) String() string { return "led_cycle_up" }

type cmdCycleDown struct{}

func (cmdCycleDown) commandMarker() {}
func (cmdCycleDown) String() string { return "led_cycle_down" }

type cmdLedReverse struct{}

func (cmdLedReverse) commandMarker() {}
func (cmdLedReverse) String() string { return "led_reverse" }

type cmdBlink struct {
	Hue    uint8
	Level  int
	UpMS   int
	DownMS int
	Count  int
}

func (cmdBlink) commandMarker() {}
func (c cmdBlink) String() string {
	return fmt.Sprintf("led_blink(hue=%d level=%d up=%d down=%d count=%d)", c.Hue, c.Level, c.UpMS, c.DownMS, c.Count)
}

type cmdSineHue struct{ Low, High uint8 }

func (cmdSineHue) commandMarker()   {}
func (c cmdSineHue) String() string { return fmt.Sprintf("led_sine_hue(%d..%d)", c.Low, c.High) }

type cmdSinePulse struct{ Low, High int }

func (cmdSinePulse) commandMarker() {}
func (c cmdSinePulse) String() string {
	return fmt.Sprintf("led_sine_pulse(%d%%..%d%%)", c.Low, c.High)
}

type cmdRainbow struct{}

func (cmdRainbow) commandMarker() {}
func (cmdRainbow) String() string { return "led_rainbow" }

type cmdEffect struct {
	Name string
	Args []string
}

func (cmdEffect) commandMarker()   {}
func (c cmdEffect) String() string { return fmt.Sprintf("led_effect(%s)", c.Name) }

type cmdLedReset struct{}

func (cmdLedReset) commandMarker() {}
func (cmdLedReset) String() string { return "led_reset" }

type cmdSystemOff struct{}

func (cmdSystemOff) commandMarker() {}
func (cmdSystemOff) String() string { return "system_off" }

type cmdSystemReset struct{}

func (cmdSystemReset) commandMarker() {}
func (cmdSystemReset) String() string { return "system_reset" }

type cmdRunScript struct{ Name string }

func (cmdRunScript) commandMarker()   {}
func (c cmdRunScript) String() string { return fmt.Sprintf("run_script(%s)", c.Name) }

type cmdAutoMode struct {
	Minutes int
	Debug   bool
}

func (cmdAutoMode) commandMarker() {}
func (c cmdAutoMode) String() string {
	return fmt.Sprintf("auto_mode(%dmin debug=%v)", c.Minutes, c.Debug)
}

type cmdSteadyRotate struct{ Minutes int }

func (cmdSteadyRotate) commandMarker() {}
func (c cmdSteadyRotate) String() string {
	return fmt.Sprintf("auto_steady_rotate(%dmin)", c.Minutes)
}

// cmdHold is only meaningful inside scripts; the script engine consumes it
// before dispatch. Receiving one over a transport is a no-op.
type cmdHold struct{ MS int }

func (cmdHold) commandMarker()   {}
func (c cmdHold) String() string { return fmt.Sprintf("hold(%dms)", c.MS) }

// cmdComment is a script annotation, ignored everywhere.
type cmdComment struct{ Text string }

func (cmdComment) commandMarker()   {}
func (c cmdComment) String() string { return fmt.Sprintf("comment(%s)", c.Text) }
