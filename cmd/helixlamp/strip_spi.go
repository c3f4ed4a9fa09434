package main

import (
	"fmt"
	"log/slog"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ============================================================================
// SPI ws2812 strip
// ============================================================================
//
// ws281x pixels are driven without a dedicated peripheral by abusing SPI:
// at 2.4 MHz each SPI bit lasts ~417ns, so three SPI bits encode one ws2812
// bit (100 = "0", 110 = "1") within the chip's timing tolerance. Pixels take
// color in GRB order. A trailing run of zero bytes holds the line low past
// the 50us reset latch.
// ============================================================================

const (
	spiIOCWrMode        = 0x40016b01
	spiIOCWrBitsPerWord = 0x40016b03
	spiIOCWrMaxSpeedHz  = 0x40046b04

	ws2812ResetBytes = 48 // >50us of low line at 2.4MHz
)

type spiStrip struct {
	file   *os.File
	buf    []byte // encoded bitstream, reused across frames
	logger *slog.Logger
}

func newSPIStrip(device string, speedHz uint32, pixels int, logger *slog.Logger) (*spiStrip, error) {
	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open spi device %s: %w", device, err)
	}

	fd := int(f.Fd())
	mode := uint8(0)
	bits := uint8(8)
	if err := spiIoctl(fd, spiIOCWrMode, unsafe.Pointer(&mode)); err != nil {
		f.Close()
		return nil, fmt.Errorf("set spi mode: %w", err)
	}
	if err := spiIoctl(fd, spiIOCWrBitsPerWord, unsafe.Pointer(&bits)); err != nil {
		f.Close()
		return nil, fmt.Errorf("set spi bits per word: %w", err)
	}
	if err := spiIoctl(fd, spiIOCWrMaxSpeedHz, unsafe.Pointer(&speedHz)); err != nil {
		f.Close()
		return nil, fmt.Errorf("set spi speed: %w", err)
	}

	s := &spiStrip{
		file:   f,
		buf:    make([]byte, pixels*9+ws2812ResetBytes),
		logger: logger,
	}
	logger.Info("spi strip ready", "device", device, "speed_hz", speedHz, "pixels", pixels)
	return s, nil
}

func spiIoctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// Write encodes the frame into the SPI bitstream and pushes it in one write.
func (s *spiStrip) Write(frame []RGB) error {
	need := len(frame)*9 + ws2812ResetBytes
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	n := 0
	for _, px := range frame {
		n = encodeWS2812Byte(s.buf, n, px.G)
		n = encodeWS2812Byte(s.buf, n, px.R)
		n = encodeWS2812Byte(s.buf, n, px.B)
	}
	for i := n; i < need; i++ {
		s.buf[i] = 0
	}

	if _, err := s.file.Write(s.buf); err != nil {
		return fmt.Errorf("spi write: %w", err)
	}
	return nil
}

// encodeWS2812Byte expands one color byte into 24 SPI bits (3 output bytes).
func encodeWS2812Byte(dst []byte, off int, b uint8) int {
	var bits uint32
	for i := 7; i >= 0; i-- {
		bits <<= 3
		if b&(1<<i) != 0 {
			bits |= 0b110
		} else {
			bits |= 0b100
		}
	}
	dst[off] = byte(bits >> 16)
	dst[off+1] = byte(bits >> 8)
	dst[off+2] = byte(bits)
	return off + 3
}

func (s *spiStrip) Close() error {
	// Latch a dark frame so the sculpture does not freeze mid-pattern.
	pixels := (len(s.buf) - ws2812ResetBytes) / 9
	_ = s.Write(make([]RGB, pixels))
	return s.file.Close()
}
