package main

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// ============================================================================
// Terminal simulator strip
// ============================================================================
//
// Renders the strip as a row-wrapped block of colored cells, so the whole
// animation engine can be exercised on a laptop with no hardware attached.
// Ctrl+C is left to the daemon's signal handling; the screen only draws.
// ============================================================================

type simStrip struct {
	mu     sync.Mutex
	screen tcell.Screen
	closed bool
	logger *slog.Logger
}

func newSimStrip(logger *slog.Logger) (*simStrip, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create terminal screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init terminal screen: %w", err)
	}
	screen.Clear()

	s := &simStrip{screen: screen, logger: logger}

	// Drain events so resizes are honored and the terminal stays responsive.
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			if _, ok := ev.(*tcell.EventResize); ok {
				s.mu.Lock()
				if !s.closed {
					screen.Sync()
				}
				s.mu.Unlock()
			}
		}
	}()

	logger.Info("terminal strip simulator ready")
	return s, nil
}

func (s *simStrip) Write(frame []RGB) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	width, _ := s.screen.Size()
	if width < 1 {
		width = 1
	}
	for i, px := range frame {
		style := tcell.StyleDefault.Background(tcell.NewRGBColor(int32(px.R), int32(px.G), int32(px.B)))
		s.screen.SetContent(i%width, i/width, ' ', nil, style)
	}
	s.screen.Show()
	return nil
}

func (s *simStrip) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.screen.Fini()
	}
	return nil
}
