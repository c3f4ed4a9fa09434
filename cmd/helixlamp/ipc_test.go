package main

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// stubSink accepts or rejects every submitted command.
type stubSink struct {
	mu       sync.Mutex
	accept   bool
	received []string
}

func (s *stubSink) Submit(raw string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, raw)
	return s.accept
}

func (s *stubSink) setAccept(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accept = v
}

func (s *stubSink) commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.received))
	copy(out, s.received)
	return out
}

func startIPC(t *testing.T, sink CommandSink) string {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "helixlamp.sock")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runIPCServer(ctx, socketPath, sink, testLogger()) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("IPC server did not shut down")
		}
	})

	// Wait for the listener to come up.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := SendIPCCommand(socketPath, "[ping]"); err == nil {
			return socketPath
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("IPC server never became reachable")
	return socketPath
}

func TestIPC_RoundTripEchoesCommand(t *testing.T) {
	sink := &stubSink{accept: true}
	socketPath := startIPC(t, sink)

	echo, err := SendIPCCommand(socketPath, "motor_speed:600")
	if err != nil {
		t.Fatalf("SendIPCCommand: %v", err)
	}
	if echo != "motor_speed:600" {
		t.Errorf("echo = %q, want the command back", echo)
	}

	found := false
	got := sink.commands()
	for _, raw := range got {
		if raw == "motor_speed:600" {
			found = true
		}
	}
	if !found {
		t.Errorf("sink received %v, command missing", got)
	}
}

func TestIPC_ReportsQueueFull(t *testing.T) {
	sink := &stubSink{accept: true}
	socketPath := startIPC(t, sink)

	sink.setAccept(false)
	if _, err := SendIPCCommand(socketPath, "motor_start"); err == nil {
		t.Error("expected an error when the daemon queue is full")
	}
}
