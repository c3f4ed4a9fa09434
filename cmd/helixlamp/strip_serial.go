package main

import (
	"fmt"
	"log/slog"

	"go.bug.st/serial"
)

// ============================================================================
// Adalight serial strip
// ============================================================================
//
// For rigs where the LEDs hang off a microcontroller instead of the host SPI
// bus, frames go out over the Adalight wire format: "Ada", pixel count high
// and low bytes, XOR checksum (hi ^ lo ^ 0x55), then raw RGB triplets.
// ============================================================================

type serialStrip struct {
	port   serial.Port
	buf    []byte
	logger *slog.Logger
}

func newSerialStrip(device string, baud int, pixels int, logger *slog.Logger) (*serialStrip, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial device %s: %w", device, err)
	}

	s := &serialStrip{
		port:   port,
		buf:    make([]byte, 0, 6+pixels*3),
		logger: logger,
	}
	logger.Info("adalight strip ready", "device", device, "baud", baud, "pixels", pixels)
	return s, nil
}

func (s *serialStrip) Write(frame []RGB) error {
	// Adalight counts pixels minus one in the header.
	count := len(frame) - 1
	if count < 0 {
		return nil
	}
	hi := byte(count >> 8)
	lo := byte(count & 0xff)

	s.buf = s.buf[:0]
	s.buf = append(s.buf, 'A', 'd', 'a', hi, lo, hi^lo^0x55)
	for _, px := range frame {
		s.buf = append(s.buf, px.R, px.G, px.B)
	}

	if _, err := s.port.Write(s.buf); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

func (s *serialStrip) Close() error {
	return s.port.Close()
}
