package main

import (
	"math/rand"
	"testing"
	"time"
)

func testScriptEngine(t *testing.T) *ScriptEngine {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	composer := newAutoComposer(rng, testModel(t), defaultRampMS, autoMemoryBudget, testLogger())
	return newScriptEngine(composer, testLogger())
}

func TestScript_DispatchesInOrderWithHolds(t *testing.T) {
	s := testScriptEngine(t)
	t0 := time.Now()

	s.Run([]string{"motor_speed:500", "hold:1000", "motor_stop"}, AutoNone, 0, t0)

	raw, ok := s.Next(t0, true)
	if !ok || raw != "motor_speed:500" {
		t.Fatalf("first dispatch = %q/%v, want motor_speed:500", raw, ok)
	}

	// The hold is measured from the previous dispatch, so nothing comes out
	// until 1000ms after motor_speed was dispatched.
	if raw, ok := s.Next(t0.Add(10*time.Millisecond), true); ok {
		t.Fatalf("dispatched %q during hold", raw)
	}
	if raw, ok := s.Next(t0.Add(900*time.Millisecond), true); ok {
		t.Fatalf("dispatched %q before hold expired", raw)
	}

	raw, ok = s.Next(t0.Add(1100*time.Millisecond), true)
	if !ok || raw != "motor_stop" {
		t.Fatalf("post-hold dispatch = %q/%v, want motor_stop", raw, ok)
	}
}

func TestScript_PlainScriptLoops(t *testing.T) {
	s := testScriptEngine(t)
	t0 := time.Now()

	s.Run([]string{"motor_speed:500", "hold:1000", "motor_stop"}, AutoNone, 0, t0)

	// Each Next call dispatches at most one command; a call that lands on the
	// hold line only arms it.
	now := t0
	var seen []string
	for i := 0; i < 6; i++ {
		now = now.Add(2 * time.Second)
		if raw, ok := s.Next(now, true); ok {
			seen = append(seen, raw)
		}
	}
	want := []string{"motor_speed:500", "motor_stop", "motor_speed:500", "motor_stop"}
	if len(seen) != len(want) {
		t.Fatalf("dispatched %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("dispatch %d = %q, want %q (full: %v)", i, seen[i], want[i], seen)
		}
	}
	if !s.Running() {
		t.Error("looping script stopped")
	}
}

func TestScript_WaitsForSettledState(t *testing.T) {
	s := testScriptEngine(t)
	t0 := time.Now()

	s.Run([]string{"led_rainbow"}, AutoNone, 0, t0)

	if raw, ok := s.Next(t0, false); ok {
		t.Fatalf("dispatched %q while unsettled", raw)
	}
	if _, ok := s.Next(t0.Add(time.Second), true); !ok {
		t.Fatal("no dispatch once settled")
	}
}

func TestScript_HoldBlocksEvenWhenUnsettledResolvesLate(t *testing.T) {
	s := testScriptEngine(t)
	t0 := time.Now()

	s.Run([]string{"motor_speed:700", "hold:500", "led_rainbow"}, AutoNone, 0, t0)
	if _, ok := s.Next(t0, true); !ok {
		t.Fatal("first command not dispatched")
	}

	// Unsettled calls never advance, not even past the hold line.
	if _, ok := s.Next(t0.Add(600*time.Millisecond), false); ok {
		t.Fatal("dispatched while unsettled")
	}
	// First settled call arms the hold; the one after (hold long expired,
	// measured from the first dispatch) releases the command.
	if raw, ok := s.Next(t0.Add(650*time.Millisecond), true); ok {
		t.Fatalf("dispatched %q on the hold line", raw)
	}
	if raw, ok := s.Next(t0.Add(700*time.Millisecond), true); !ok || raw != "led_rainbow" {
		t.Fatalf("got %q/%v, want led_rainbow", raw, ok)
	}
}

func TestScript_CommentsAreSkipped(t *testing.T) {
	s := testScriptEngine(t)
	t0 := time.Now()

	s.Run([]string{"[intro]", "[more notes]", "motor_start"}, AutoNone, 0, t0)
	raw, ok := s.Next(t0, true)
	if !ok || raw != "motor_start" {
		t.Fatalf("got %q/%v, want motor_start", raw, ok)
	}
}

func TestScript_AllCommentScriptStopsInsteadOfSpinning(t *testing.T) {
	s := testScriptEngine(t)
	t0 := time.Now()

	s.Run([]string{"[nothing]", "[here]"}, AutoNone, 0, t0)
	if raw, ok := s.Next(t0, true); ok {
		t.Fatalf("dispatched %q from a comment-only script", raw)
	}
	if s.Running() {
		t.Error("comment-only script should stop")
	}
}

func TestScript_MalformedLinesAreDroppedAndPlaybackContinues(t *testing.T) {
	s := testScriptEngine(t)
	t0 := time.Now()

	s.Run([]string{"warp_drive:9", "motor_start"}, AutoNone, 0, t0)
	raw, ok := s.Next(t0, true)
	if !ok || raw != "motor_start" {
		t.Fatalf("got %q/%v, want motor_start after dropping bad line", raw, ok)
	}
}

func TestScript_StopHaltsPlayback(t *testing.T) {
	s := testScriptEngine(t)
	t0 := time.Now()

	s.Run([]string{"motor_start", "motor_stop"}, AutoNone, 0, t0)
	s.Stop()
	if s.Running() {
		t.Error("engine still running after stop")
	}
	if raw, ok := s.Next(t0.Add(time.Second), true); ok {
		t.Errorf("dispatched %q after stop", raw)
	}
}

func TestScript_AutoModeRegeneratesAtEnd(t *testing.T) {
	s := testScriptEngine(t)
	t0 := time.Now()

	first := s.composer.GenerateScript(1)
	s.Run(first, AutoNormal, 1, t0)

	// Exhaust the whole script, ignoring holds by jumping far ahead in time.
	now := t0
	dispatched := 0
	for i := 0; i < 10*len(first); i++ {
		now = now.Add(time.Minute)
		if _, ok := s.Next(now, true); ok {
			dispatched++
		}
		if !s.Running() {
			t.Fatal("auto script stopped instead of regenerating")
		}
	}
	if dispatched <= len(first) {
		t.Errorf("dispatched only %d commands from a regenerating script of %d", dispatched, len(first))
	}
}

func TestBuiltinScripts_AllLinesParse(t *testing.T) {
	for name, lines := range builtinScripts {
		for i, raw := range lines {
			if _, err := parseCommand(raw); err != nil {
				t.Errorf("script %q line %d (%q): %v", name, i, raw, err)
			}
		}
	}
}
