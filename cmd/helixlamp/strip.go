package main

// ============================================================================
// Strip writers
// ============================================================================
//
// A StripWriter receives one fully composed physical frame per render tick.
// Backends: SPI ws2812 (production), Adalight over serial, a terminal
// simulator, and a null sink. Frame slices are reused by the caller, so a
// backend that retains pixels must copy them.
// ============================================================================

// nullStrip discards frames. Useful for motor-only bring-up.
type nullStrip struct{}

func (nullStrip) Write([]RGB) error { return nil }
func (nullStrip) Close() error      { return nil }
