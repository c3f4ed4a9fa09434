package main

import (
	"fmt"
	"strconv"
	"strings"
)

// ============================================================================
// Command parser - wire strings to typed commands
// ============================================================================
//
// Wire format: "name" or "name:arg1,arg2,...". Lines starting with '[' are
// script comments. Parsing happens exactly once at the boundary; failures
// are reported to the caller, which logs and drops the command so malformed
// input never mutates state.
// ============================================================================

// parseCommand converts one wire string into a typed command.
func parseCommand(raw string) (command, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty command")
	}
	if strings.HasPrefix(raw, "[") {
		return cmdComment{Text: strings.Trim(raw, "[]")}, nil
	}

	name := raw
	var args []string
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		name = raw[:i]
		args = strings.Split(raw[i+1:], ",")
		for j := range args {
			args[j] = strings.TrimSpace(args[j])
		}
	}

	switch name {
	case "motor_speed":
		v, err := intArgs(name, args, 1)
		if err != nil {
			return nil, err
		}
		return cmdMotorSpeed{Speed: v[0]}, nil
	case "motor_ramp":
		v, err := intArgs(name, args, 1)
		if err != nil {
			return nil, err
		}
		if v[0] <= 0 {
			return nil, fmt.Errorf("motor_ramp: duration must be positive, got %d", v[0])
		}
		return cmdMotorRamp{MS: v[0]}, nil
	case "motor_start":
		return cmdMotorStart{}, nil
	case "motor_stop":
		return cmdMotorStop{}, nil
	case "motor_reverse":
		return cmdMotorReverse{}, nil
	case "motor_speed_up":
		return cmdMotorSpeedUp{}, nil
	case "motor_speed_down":
		return cmdMotorSpeedDown{}, nil
	case "led_global_brightness":
		v, err := intArgs(name, args, 1)
		if err != nil {
			return nil, err
		}
		return cmdGlobalBrightness{Pct: v[0]}, nil
	case "led_display_brightness", "led_brightness":
		// led_brightness is the legacy alias still emitted by old scripts.
		v, err := intArgs(name, args, 1)
		if err != nil {
			return nil, err
		}
		return cmdDisplayBrightness{Pct: v[0]}, nil
	case "led_background":
		v, err := intArgs(name, args, 2)
		if err != nil {
			return nil, err
		}
		return cmdBackground{Hue: uint8(v[0]), Level: v[1]}, nil
	case "led_tails":
		v, err := intArgs(name, args, 3)
		if err != nil {
			return nil, err
		}
		return cmdTails{Hue: uint8(v[0]), Length: v[1], Count: v[2]}, nil
	case "led_cycle_time":
		v, err := intArgs(name, args, 1)
		if err != nil {
			return nil, err
		}
		return cmdCycleTime{MS: v[0]}, nil
	case "led_cycle_up":
		return cmdCycleUp{}, nil
	case "led_cycle_down":
		return cmdCycleDown{}, nil
	case "led_reverse":
		return cmdLedReverse{}, nil
	case "led_blink":
		v, err := intArgs(name, args, 5)
		if err != nil {
			return nil, err
		}
		return cmdBlink{Hue: uint8(v[0]), Level: v[1], UpMS: v[2], DownMS: v[3], Count: v[4]}, nil
	case "led_sine_hue":
		v, err := intArgs(name, args, 2)
		if err != nil {
			return nil, err
		}
		return cmdSineHue{Low: uint8(v[0]), High: uint8(v[1])}, nil
	case "led_sine_pulse":
		v, err := intArgs(name, args, 2)
		if err != nil {
			return nil, err
		}
		return cmdSinePulse{Low: v[0], High: v[1]}, nil
	case "led_rainbow":
		return cmdRainbow{}, nil
	case "led_effect":
		if len(args) == 0 || args[0] == "" {
			return nil, fmt.Errorf("led_effect: missing effect name")
		}
		return cmdEffect{Name: args[0], Args: args[1:]}, nil
	case "led_reset":
		return cmdLedReset{}, nil
	case "system_off":
		return cmdSystemOff{}, nil
	case "system_reset":
		return cmdSystemReset{}, nil
	case "run_script":
		if len(args) != 1 || args[0] == "" {
			return nil, fmt.Errorf("run_script: expected a script name")
		}
		return cmdRunScript{Name: args[0]}, nil
	case "auto_mode", "auto_mode_debug":
		v, err := intArgs(name, args, 1)
		if err != nil {
			return nil, err
		}
		if v[0] <= 0 {
			return nil, fmt.Errorf("%s: duration must be positive minutes, got %d", name, v[0])
		}
		return cmdAutoMode{Minutes: v[0], Debug: name == "auto_mode_debug"}, nil
	case "auto_steady_rotate":
		v, err := intArgs(name, args, 1)
		if err != nil {
			return nil, err
		}
		if v[0] <= 0 {
			return nil, fmt.Errorf("auto_steady_rotate: duration must be positive minutes, got %d", v[0])
		}
		return cmdSteadyRotate{Minutes: v[0]}, nil
	case "hold":
		v, err := intArgs(name, args, 1)
		if err != nil {
			return nil, err
		}
		if v[0] < 0 {
			return nil, fmt.Errorf("hold: duration must be non-negative, got %d", v[0])
		}
		return cmdHold{MS: v[0]}, nil
	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}
}

// intArgs parses exactly n integer arguments.
func intArgs(name string, args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%s: expected %d argument(s), got %d", name, n, len(args))
	}
	out := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d %q is not a number", name, i+1, a)
		}
		out[i] = v
	}
	return out, nil
}
