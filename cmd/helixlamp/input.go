package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// ============================================================================
// Front-panel buttons
// ============================================================================
//
// The sculpture base has three buttons wired through a Linux input device:
// start/stop toggle, hard stop, and reverse. Button presses become ordinary
// command strings submitted through the same bounded handoff as every other
// transport, so the tick loop stays the single writer.
// ============================================================================

// inputEvent mirrors struct input_event from <linux/input.h>.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// buttonCommand maps a key press to a wire command. Repeats are ignored so a
// held button fires once.
func buttonCommand(ev inputEvent, motorRunning func() bool) (string, bool) {
	if ev.Type != evKey || ev.Value != evValuePress {
		return "", false
	}
	switch ev.Code {
	case keyPlayPause:
		if motorRunning() {
			return "motor_stop", true
		}
		return "motor_start", true
	case keyStopCD:
		return "motor_stop", true
	case keyNextSong:
		return "motor_reverse", true
	default:
		return "", false
	}
}

// runButtonInput reads the input device and submits button commands until
// ctx is canceled or the device errors out.
func runButtonInput(ctx context.Context, device string, sink CommandSink, motorRunning func() bool, logger *slog.Logger) error {
	f, err := os.Open(device)
	if err != nil {
		return fmt.Errorf("open input device %s: %w", device, err)
	}
	defer f.Close()

	logger.Info("button input listening", "device", device)

	events := make(chan inputEvent, 32)
	readErr := make(chan error, 1)
	go readInputEventsEpoll(f, events, readErr)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return fmt.Errorf("input device %s: %w", device, err)
		case ev := <-events:
			if cmd, ok := buttonCommand(ev, motorRunning); ok {
				logger.Debug("button press", "code", ev.Code, "command", cmd)
				sink.Submit(cmd)
			}
		}
	}
}
