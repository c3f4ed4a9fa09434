package main

import (
	"context"
	"log/slog"
	"time"
)

// ============================================================================
// Daemon loop
// ============================================================================
//
// One cooperative control loop drives the whole sculpture. Every iteration
// reads the monotonic clock once and hands it to the controller; nothing in
// the tick path sleeps or blocks. All timing (ramp steps, effect cadences,
// script holds) is compared against this clock, which is what keeps a 2 ms
// tick honest even when individual engines only act every few hundred ms.
// ============================================================================

// runDaemon ticks the controller until ctx is canceled.
func runDaemon(ctx context.Context, ctrl *SculptureController, updateHz int, logger *slog.Logger) error {
	if updateHz <= 0 {
		updateHz = defaultUpdateHz
	}
	interval := time.Second / time.Duration(updateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("control loop starting", "update_hz", updateHz, "tick", interval)

	for {
		select {
		case <-ctx.Done():
			logger.Info("control loop stopping (context canceled)")
			// Leave the hardware dark and still on the way out.
			ctrl.shutdownNow()
			return nil
		case now := <-ticker.C:
			ctrl.Tick(now)
		}
	}
}
