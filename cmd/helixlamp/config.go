package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for the helixlamp daemon.
//
// The config file is the primary configuration surface; flags exist for
// small overrides (systemd drop-ins, debugging). Defaults and validation are
// centralized here so the rest of the code can assume a well-formed config.
type Config struct {
	Motor   MotorConfig   `yaml:"motor"`
	Strip   StripConfig   `yaml:"strip"`
	Sync    SyncConfig    `yaml:"sync"`
	Control ControlConfig `yaml:"control"`
	Script  ScriptConfig  `yaml:"script"`
	Logging LoggingConfig `yaml:"logging"`
}

// MotorConfig describes the H-bridge/PWM side of the sculpture.
type MotorConfig struct {
	DutyMin   int    `yaml:"duty_min"`   // dead-zone threshold (8-bit)
	DutyMax   int    `yaml:"duty_max"`   // full duty (8-bit)
	DutyCurve string `yaml:"duty_curve"` // "linear" (default) or "quadratic"

	RampMS          int `yaml:"ramp_ms"`           // full ramp maneuver duration
	DefaultSpeed    int `yaml:"default_speed"`     // speed setting after idle-at-zero
	ReverseDipSpeed int `yaml:"reverse_dip_speed"` // speed to dip to before flipping

	// sysfs paths for the PWM channel and the two H-bridge direction pins.
	PWMPath  string `yaml:"pwm_path,omitempty"`
	DirAPath string `yaml:"dir_a_path,omitempty"`
	DirBPath string `yaml:"dir_b_path,omitempty"`
}

// StripConfig describes the LED strip and how frames reach it.
type StripConfig struct {
	Backend      string `yaml:"backend"` // spi | serial | sim | null
	PhysicalLEDs int    `yaml:"physical_leds"`
	VirtualGap   int    `yaml:"virtual_gap"` // logical padding over the mechanical dead region

	SPIDevice  string `yaml:"spi_device,omitempty"`
	SPISpeedHz int    `yaml:"spi_speed_hz,omitempty"`

	SerialDevice string `yaml:"serial_device,omitempty"`
	SerialBaud   int    `yaml:"serial_baud,omitempty"`
}

// SyncConfig is the speed-to-revolution-time calibration.
type SyncConfig struct {
	Table        []SpeedSyncPair `yaml:"table"`
	MinRevTimeMS int             `yaml:"min_rev_time_ms"`
}

// ControlConfig wires the tick loop and the command transports.
type ControlConfig struct {
	UpdateHz      int    `yaml:"update_hz"`
	ListenAddr    string `yaml:"listen_addr"` // websocket command server ("" disables)
	IPCSocket     string `yaml:"ipc_socket"`  // unix socket ("" disables)
	InputDevice   string `yaml:"input_device,omitempty"`
	CommandBuffer int    `yaml:"command_buffer"`
}

// ScriptConfig bounds the auto composer.
type ScriptConfig struct {
	MemoryBudgetBytes int   `yaml:"memory_budget_bytes"`
	Seed              int64 `yaml:"seed,omitempty"` // 0 = seed from time
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with factory defaults.
func DefaultConfig() Config {
	return Config{
		Motor: MotorConfig{
			DutyMin:         defaultDutyMin,
			DutyMax:         defaultDutyMax,
			DutyCurve:       string(DutyCurveLinear),
			RampMS:          defaultRampMS,
			DefaultSpeed:    defaultMotorSpeed,
			ReverseDipSpeed: defaultReverseDip,
			PWMPath:         "/sys/class/pwm/pwmchip0/pwm0",
			DirAPath:        "/sys/class/gpio/gpio17/value",
			DirBPath:        "/sys/class/gpio/gpio27/value",
		},
		Strip: StripConfig{
			Backend:      "spi",
			PhysicalLEDs: defaultPhysicalLEDs,
			VirtualGap:   defaultVirtualGap,
			SPIDevice:    "/dev/spidev0.0",
			SPISpeedHz:   2400000,
			SerialDevice: "/dev/ttyUSB0",
			SerialBaud:   115200,
		},
		Sync: SyncConfig{
			Table:        defaultSpeedSyncTable(),
			MinRevTimeMS: defaultMinRevTimeMS,
		},
		Control: ControlConfig{
			UpdateHz:      defaultUpdateHz,
			ListenAddr:    "127.0.0.1:8137",
			IPCSocket:     "/tmp/helixlamp.sock",
			CommandBuffer: defaultCommandBuffer,
		},
		Script: ScriptConfig{
			MemoryBudgetBytes: autoMemoryBudget,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file on top of defaults.
// Unknown fields are rejected to catch typos early.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(expandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// Validate checks cross-field consistency. Call after all overrides applied.
func (c *Config) Validate() error {
	if c.Motor.DutyMin <= 0 || c.Motor.DutyMax <= c.Motor.DutyMin || c.Motor.DutyMax > 255 {
		return fmt.Errorf("motor duty range [%d..%d] is invalid", c.Motor.DutyMin, c.Motor.DutyMax)
	}
	switch DutyCurve(c.Motor.DutyCurve) {
	case DutyCurveLinear, DutyCurveQuadratic:
	default:
		return fmt.Errorf("motor duty_curve %q is not linear or quadratic", c.Motor.DutyCurve)
	}
	if c.Motor.RampMS <= 0 {
		return fmt.Errorf("motor ramp_ms must be positive, got %d", c.Motor.RampMS)
	}
	if c.Motor.DefaultSpeed <= 0 || c.Motor.DefaultSpeed > logicalSpeedMax {
		return fmt.Errorf("motor default_speed %d outside (0..%d]", c.Motor.DefaultSpeed, logicalSpeedMax)
	}
	if c.Motor.ReverseDipSpeed < 0 || c.Motor.ReverseDipSpeed > logicalSpeedMax {
		return fmt.Errorf("motor reverse_dip_speed %d outside [0..%d]", c.Motor.ReverseDipSpeed, logicalSpeedMax)
	}
	switch c.Strip.Backend {
	case "spi", "serial", "sim", "null":
	default:
		return fmt.Errorf("strip backend %q is not spi, serial, sim or null", c.Strip.Backend)
	}
	if c.Strip.PhysicalLEDs < 1 {
		return fmt.Errorf("strip physical_leds must be at least 1, got %d", c.Strip.PhysicalLEDs)
	}
	if c.Strip.VirtualGap < 0 {
		return fmt.Errorf("strip virtual_gap must not be negative, got %d", c.Strip.VirtualGap)
	}
	if len(c.Sync.Table) < 2 {
		return fmt.Errorf("sync table needs at least 2 calibration pairs, got %d", len(c.Sync.Table))
	}
	if c.Control.UpdateHz <= 0 {
		return fmt.Errorf("control update_hz must be positive, got %d", c.Control.UpdateHz)
	}
	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// FlagOverrides carries optional flag values applied on top of a loaded
// config. Nil pointers mean "not set".
type FlagOverrides struct {
	ListenAddr   *string
	IPCSocket    *string
	UpdateHz     *int
	StripBackend *string
	InputDevice  *string
	Seed         *int64
	LogLevel     *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.ListenAddr != nil {
		cfg.Control.ListenAddr = *o.ListenAddr
	}
	if o.IPCSocket != nil {
		cfg.Control.IPCSocket = *o.IPCSocket
	}
	if o.UpdateHz != nil {
		cfg.Control.UpdateHz = *o.UpdateHz
	}
	if o.StripBackend != nil {
		cfg.Strip.Backend = *o.StripBackend
	}
	if o.InputDevice != nil {
		cfg.Control.InputDevice = *o.InputDevice
	}
	if o.Seed != nil {
		cfg.Script.Seed = *o.Seed
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// expandPath handles a leading ~ so config paths work from unit files and
// shells alike.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
