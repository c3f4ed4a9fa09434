package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("factory defaults rejected: %v", err)
	}
}

func TestLoadConfigFile_OverlaysOnDefaults(t *testing.T) {
	path := writeConfig(t, `
motor:
  ramp_ms: 2500
strip:
  backend: sim
  physical_leds: 60
  virtual_gap: 8
`)
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}

	if cfg.Motor.RampMS != 2500 {
		t.Errorf("ramp_ms = %d, want 2500", cfg.Motor.RampMS)
	}
	if cfg.Strip.Backend != "sim" || cfg.Strip.PhysicalLEDs != 60 || cfg.Strip.VirtualGap != 8 {
		t.Errorf("strip = %+v, want sim/60/8", cfg.Strip)
	}
	// Untouched sections keep their defaults.
	if cfg.Motor.DutyMin != defaultDutyMin {
		t.Errorf("duty_min = %d, want default %d", cfg.Motor.DutyMin, defaultDutyMin)
	}
	if len(cfg.Sync.Table) != len(defaultSpeedSyncTable()) {
		t.Errorf("sync table shrank to %d entries", len(cfg.Sync.Table))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config rejected: %v", err)
	}
}

func TestLoadConfigFile_RejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
motor:
  ramp_millis: 2500
`)
	if _, err := LoadConfigFile(path); err == nil {
		t.Error("expected rejection of a misspelled field")
	}
}

func TestLoadConfigFile_RejectsMissingFile(t *testing.T) {
	if _, err := LoadConfigFile("/nonexistent/helixlamp.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadConfigFile(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestValidate_CatchesBadValues(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(*Config)
	}{
		{"inverted duty", func(c *Config) { c.Motor.DutyMin = 200; c.Motor.DutyMax = 100 }},
		{"bad curve", func(c *Config) { c.Motor.DutyCurve = "cubic" }},
		{"zero ramp", func(c *Config) { c.Motor.RampMS = 0 }},
		{"default speed out of range", func(c *Config) { c.Motor.DefaultSpeed = 1500 }},
		{"unknown backend", func(c *Config) { c.Strip.Backend = "hdmi" }},
		{"no leds", func(c *Config) { c.Strip.PhysicalLEDs = 0 }},
		{"negative gap", func(c *Config) { c.Strip.VirtualGap = -1 }},
		{"short sync table", func(c *Config) { c.Sync.Table = c.Sync.Table[:1] }},
		{"zero update rate", func(c *Config) { c.Control.UpdateHz = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}
	for _, m := range mutations {
		cfg := DefaultConfig()
		m.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", m.name)
		}
	}
}

func TestFlagOverrides_ApplyOnlySetFields(t *testing.T) {
	cfg := DefaultConfig()
	backend := "null"
	hz := 250

	FlagOverrides{StripBackend: &backend, UpdateHz: &hz}.Apply(&cfg)

	if cfg.Strip.Backend != "null" {
		t.Errorf("backend = %q, want null", cfg.Strip.Backend)
	}
	if cfg.Control.UpdateHz != 250 {
		t.Errorf("update_hz = %d, want 250", cfg.Control.UpdateHz)
	}
	// Unset overrides leave the config alone.
	if cfg.Control.ListenAddr != DefaultConfig().Control.ListenAddr {
		t.Errorf("listen addr changed to %q", cfg.Control.ListenAddr)
	}
}
