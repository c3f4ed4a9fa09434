package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ============================================================================
// Motor drivers
// ============================================================================
//
// The H-bridge takes a PWM duty for magnitude and two direction pins for
// polarity. Writes go through sysfs; each call is a short write to an
// already-open file, cheap enough for the tick path.
// ============================================================================

// pwmMotor drives the H-bridge via a sysfs PWM channel and two GPIO value
// files for direction.
type pwmMotor struct {
	duty   *os.File // <pwm>/duty_cycle
	dirA   *os.File
	dirB   *os.File
	period int64 // PWM period in ns
	logger *slog.Logger
}

// newPWMMotor opens the sysfs files. The PWM channel must already be
// exported and configured with a period by the provisioning layer.
func newPWMMotor(pwmPath, dirAPath, dirBPath string, logger *slog.Logger) (*pwmMotor, error) {
	periodRaw, err := os.ReadFile(filepath.Join(pwmPath, "period"))
	if err != nil {
		return nil, fmt.Errorf("read pwm period: %w", err)
	}
	var period int64
	if _, err := fmt.Sscanf(string(periodRaw), "%d", &period); err != nil || period <= 0 {
		return nil, fmt.Errorf("parse pwm period %q", string(periodRaw))
	}

	duty, err := os.OpenFile(filepath.Join(pwmPath, "duty_cycle"), os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open pwm duty_cycle: %w", err)
	}
	dirA, err := os.OpenFile(dirAPath, os.O_WRONLY, 0)
	if err != nil {
		duty.Close()
		return nil, fmt.Errorf("open direction pin A: %w", err)
	}
	dirB, err := os.OpenFile(dirBPath, os.O_WRONLY, 0)
	if err != nil {
		duty.Close()
		dirA.Close()
		return nil, fmt.Errorf("open direction pin B: %w", err)
	}

	m := &pwmMotor{duty: duty, dirA: dirA, dirB: dirB, period: period, logger: logger}
	if err := m.SetDuty(0); err != nil {
		m.Close()
		return nil, err
	}
	if err := m.SetDirection(true); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

// SetDuty scales an 8-bit duty onto the PWM period.
func (m *pwmMotor) SetDuty(duty int) error {
	if duty < 0 {
		duty = 0
	}
	if duty > 255 {
		duty = 255
	}
	ns := m.period * int64(duty) / 255
	if _, err := fmt.Fprintf(m.duty, "%d", ns); err != nil {
		return fmt.Errorf("write duty_cycle: %w", err)
	}
	return nil
}

// SetDirection drives the H-bridge direction pins complementarily.
func (m *pwmMotor) SetDirection(clockwise bool) error {
	a, b := "1", "0"
	if !clockwise {
		a, b = "0", "1"
	}
	if _, err := m.dirA.WriteString(a); err != nil {
		return fmt.Errorf("write direction pin A: %w", err)
	}
	if _, err := m.dirB.WriteString(b); err != nil {
		return fmt.Errorf("write direction pin B: %w", err)
	}
	return nil
}

func (m *pwmMotor) Close() error {
	_ = m.SetDuty(0)
	m.duty.Close()
	m.dirA.Close()
	m.dirB.Close()
	return nil
}

// nullMotor discards all actuation. Used with the sim/null strip backends so
// the full engine stack runs on a dev machine.
type nullMotor struct{}

func (nullMotor) SetDuty(int) error       { return nil }
func (nullMotor) SetDirection(bool) error { return nil }
func (nullMotor) Close() error            { return nil }
