package main

import (
	"log/slog"
	"time"
)

// ============================================================================
// Script Engine - sequenced command playback
// ============================================================================
//
// A script is an ordered list of wire-format command strings with hold
// delays. The engine dispatches at most one command per tick and only at
// visually "settled" moments: the motor must be idle (no ramp in flight) and
// no finite blink may still be counting down. That keeps transitions from
// piling on top of each other.
//
// Hold durations are measured from the dispatch time of the PRECEDING
// command, not from when the hold line itself is reached.
//
// End-of-list behavior: plain scripts loop from the top; auto-mode scripts
// ask the composer for a fresh script of the same duration and continue
// without a gap.
// ============================================================================

// AutoMode selects end-of-script regeneration.
type AutoMode int

const (
	AutoNone AutoMode = iota
	AutoNormal
	AutoSteadyRotate
)

// ScriptEngine owns script playback state.
type ScriptEngine struct {
	logger   *slog.Logger
	composer *AutoComposer

	commands     []string
	index        int
	running      bool
	dispatchedAt time.Time
	holdMS       int

	autoMode    AutoMode
	autoMinutes int
}

func newScriptEngine(composer *AutoComposer, logger *slog.Logger) *ScriptEngine {
	return &ScriptEngine{logger: logger, composer: composer}
}

// Run starts playback of a command list. For auto modes, minutes is the
// regeneration duration.
func (s *ScriptEngine) Run(commands []string, mode AutoMode, minutes int, now time.Time) {
	s.commands = commands
	s.index = 0
	s.running = len(commands) > 0
	s.dispatchedAt = now
	s.holdMS = 0
	s.autoMode = mode
	s.autoMinutes = minutes
	if s.running {
		s.logger.Info("script started", "commands", len(commands), "auto_mode", mode != AutoNone)
	}
}

// Stop halts playback.
func (s *ScriptEngine) Stop() {
	if s.running {
		s.logger.Info("script stopped", "at_index", s.index)
	}
	s.running = false
	s.autoMode = AutoNone
}

// Running reports whether a script is playing.
func (s *ScriptEngine) Running() bool { return s.running }

// Next returns the next command string to dispatch, if one is due. settled
// must be true only when the motor ramp is idle and no finite blink is
// active; the engine refuses to advance otherwise.
func (s *ScriptEngine) Next(now time.Time, settled bool) (string, bool) {
	if !s.running || len(s.commands) == 0 {
		return "", false
	}
	if s.holdMS > 0 {
		if now.Sub(s.dispatchedAt) < time.Duration(s.holdMS)*time.Millisecond {
			return "", false
		}
		s.holdMS = 0
	}
	if !settled {
		return "", false
	}

	// Scan to the next dispatchable command, consuming holds and comments.
	// The scan is bounded so a script of nothing but comments cannot spin.
	for scanned := 0; scanned <= len(s.commands); scanned++ {
		if s.index >= len(s.commands) {
			if !s.regenerateOrLoop(now) {
				return "", false
			}
		}

		raw := s.commands[s.index]
		s.index++

		cmd, err := parseCommand(raw)
		if err != nil {
			s.logger.Warn("script command dropped", "command", raw, "error", err)
			continue
		}

		switch c := cmd.(type) {
		case cmdComment:
			continue
		case cmdHold:
			// Relative to the previous dispatch; a zero remainder just
			// passes through on the next tick.
			s.holdMS = c.MS
			return "", false
		default:
			s.dispatchedAt = now
			return raw, true
		}
	}

	s.logger.Warn("script contains no dispatchable commands, stopping")
	s.running = false
	return "", false
}

// regenerateOrLoop handles end-of-list. Returns false when playback ends.
func (s *ScriptEngine) regenerateOrLoop(now time.Time) bool {
	switch s.autoMode {
	case AutoNormal:
		s.commands = s.composer.GenerateScript(s.autoMinutes)
	case AutoSteadyRotate:
		s.commands = s.composer.GenerateSteadyRotate(s.autoMinutes)
	default:
		// Plain scripts loop from the top.
	}
	s.index = 0
	if len(s.commands) == 0 {
		s.running = false
		return false
	}
	if s.autoMode != AutoNone {
		s.logger.Info("auto script regenerated", "commands", len(s.commands), "minutes", s.autoMinutes)
	}
	return true
}

// Built-in named scripts for run_script. These are tuned by hand; treat them
// as show presets rather than test fixtures.
var builtinScripts = map[string][]string{
	"funky": {
		"[funky: high energy preset]",
		"system_reset",
		"hold:1000",
		"led_display_brightness:60",
		"motor_speed:700",
		"led_background:180,20",
		"led_tails:32,15,3",
		"hold:20000",
		"led_sine_hue:0,64",
		"hold:20000",
		"motor_reverse",
		"hold:9000",
		"led_effect:noise,party,40,15",
		"hold:20000",
		"led_tails:96,10,4",
		"led_rainbow",
		"hold:20000",
		"led_blink:0,80,400,600,3",
		"hold:4000",
	},
	"demo": {
		"[demo: slow walkthrough of every effect]",
		"system_reset",
		"hold:1000",
		"motor_speed:550",
		"led_tails:160,12,3",
		"hold:15000",
		"led_effect:marquee,160,4,4",
		"hold:15000",
		"led_effect:twinkle,200,30",
		"hold:15000",
		"led_effect:fire",
		"hold:15000",
		"led_effect:noise,ocean,25,12",
		"hold:15000",
		"led_blink:96,70,800,1200,2",
		"hold:5000",
		"led_effect:comet",
		"hold:15000",
	},
}
