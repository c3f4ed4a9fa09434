package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env"
	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("helixlamp v%s\n", version)
	fmt.Println("Control daemon for the helix kinetic light sculpture")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  helixlamp [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Drives the sculpture motor (ramped PWM over sysfs) and the LED strip")
	fmt.Println("  (ws2812 over SPI, Adalight over serial, or a terminal simulator),")
	fmt.Println("  keeping the light animation synchronized to the rotation speed.")
	fmt.Println("  Commands arrive over websocket, a unix socket, or front-panel buttons.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        Path to YAML config file (default: built-in defaults)")
	fmt.Println()
	fmt.Println("  -listen-addr string")
	fmt.Println("        Websocket command server address (overrides config)")
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Println("        Unix domain socket path for IPC (overrides config)")
	fmt.Println()
	fmt.Println("  -update-hz int")
	fmt.Println("        Control loop frequency in Hz (overrides config)")
	fmt.Println()
	fmt.Println("  -strip string")
	fmt.Println("        Strip backend: spi, serial, sim, null (overrides config)")
	fmt.Println()
	fmt.Println("  -input-device string")
	fmt.Println("        Linux input event device for front-panel buttons (overrides config)")
	fmt.Println()
	fmt.Println("  -seed int")
	fmt.Println("        Auto-composer random seed, 0 seeds from time (overrides config)")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (overrides config)")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  HELIXLAMP_CONFIG       - Config file path (flag -config wins)")
	fmt.Println("  HELIXLAMP_STRIP        - Strip backend")
	fmt.Println("  HELIXLAMP_LISTEN_ADDR  - Websocket command server address")
	fmt.Println("  HELIXLAMP_IPC_SOCKET   - Unix domain socket path")
	fmt.Println("  HELIXLAMP_LOG_LEVEL    - Log level")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Production rig with a config file")
	fmt.Println("  helixlamp -config /etc/helixlamp/config.yaml")
	fmt.Println()
	fmt.Println("  # Dry run on a laptop: terminal simulator, no motor")
	fmt.Println("  helixlamp -strip sim -log-level debug")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - SPI backend requires access to the spidev device (spi group or root)")
	fmt.Println("  - Button input requires read access to the input device")
	fmt.Println()
}

// envOverrides are applied between the config file and the flags, so the
// precedence is flags > environment > file > defaults.
type envOverrides struct {
	Config     string `env:"HELIXLAMP_CONFIG"`
	Strip      string `env:"HELIXLAMP_STRIP"`
	ListenAddr string `env:"HELIXLAMP_LISTEN_ADDR"`
	IPCSocket  string `env:"HELIXLAMP_IPC_SOCKET"`
	LogLevel   string `env:"HELIXLAMP_LOG_LEVEL"`
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return
		}
	}

	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		listenAddr  = flag.String("listen-addr", "", "Websocket command server address")
		ipcSocket   = flag.String("ipc-socket", "", "Unix domain socket path for IPC")
		updateHz    = flag.Int("update-hz", 0, "Control loop frequency in Hz")
		stripFlag   = flag.String("strip", "", "Strip backend: spi, serial, sim, null")
		inputDevice = flag.String("input-device", "", "Linux input event device for buttons")
		seed        = flag.Int64("seed", 0, "Auto-composer random seed (0 = from time)")
		logLevelStr = flag.String("log-level", "", "Log level: error, warn, info, debug")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	var envCfg envOverrides
	if err := env.Parse(&envCfg); err != nil {
		fmt.Fprintln(os.Stderr, "error: parsing environment:", err)
		os.Exit(1)
	}
	if *configPath == "" {
		*configPath = envCfg.Config
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if envCfg.Strip != "" {
		cfg.Strip.Backend = envCfg.Strip
	}
	if envCfg.ListenAddr != "" {
		cfg.Control.ListenAddr = envCfg.ListenAddr
	}
	if envCfg.IPCSocket != "" {
		cfg.Control.IPCSocket = envCfg.IPCSocket
	}
	if envCfg.LogLevel != "" {
		cfg.Logging.Level = envCfg.LogLevel
	}

	overrides := FlagOverrides{}
	if *listenAddr != "" {
		overrides.ListenAddr = listenAddr
	}
	if *ipcSocket != "" {
		overrides.IPCSocket = ipcSocket
	}
	if *updateHz != 0 {
		overrides.UpdateHz = updateHz
	}
	if *stripFlag != "" {
		overrides.StripBackend = stripFlag
	}
	if *inputDevice != "" {
		overrides.InputDevice = inputDevice
	}
	if *seed != 0 {
		overrides.Seed = seed
	}
	if *logLevelStr != "" {
		overrides.LogLevel = logLevelStr
	}
	overrides.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logLevel, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger := setupLogger(logLevel)
	logger.Info("starting helixlamp", "version", version,
		"strip_backend", cfg.Strip.Backend,
		"update_hz", cfg.Control.UpdateHz,
		"listen_addr", cfg.Control.ListenAddr,
		"ipc_socket", cfg.Control.IPCSocket)

	model, err := newSpeedModel(DutyCurve(cfg.Motor.DutyCurve), cfg.Motor.DutyMin, cfg.Motor.DutyMax, cfg.Sync.Table, cfg.Sync.MinRevTimeMS)
	if err != nil {
		logger.Error("speed model rejected", "error", err)
		os.Exit(1)
	}

	strip, err := buildStrip(cfg.Strip, logger)
	if err != nil {
		logger.Error("strip backend failed", "error", err)
		os.Exit(1)
	}
	defer strip.Close()

	motor, err := buildMotor(cfg, logger)
	if err != nil {
		logger.Error("motor driver failed", "error", err)
		strip.Close()
		os.Exit(1)
	}
	defer motor.Close()

	seedVal := cfg.Script.Seed
	if seedVal == 0 {
		seedVal = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seedVal))

	light := newLightSync(model, cfg.Strip.PhysicalLEDs, cfg.Strip.VirtualGap)
	ctrl := newController(model, motor, strip, light, rng,
		cfg.Motor.RampMS, cfg.Motor.DefaultSpeed, cfg.Motor.ReverseDipSpeed,
		cfg.Script.MemoryBudgetBytes, cfg.Control.CommandBuffer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runDaemon(ctx, ctrl, cfg.Control.UpdateHz, logger)
	})
	if cfg.Control.ListenAddr != "" {
		g.Go(func() error {
			return runCommandServer(ctx, cfg.Control.ListenAddr, ctrl, logger)
		})
	}
	if cfg.Control.IPCSocket != "" {
		g.Go(func() error {
			return runIPCServer(ctx, cfg.Control.IPCSocket, ctrl, logger)
		})
	}
	if cfg.Control.InputDevice != "" {
		g.Go(func() error {
			return runButtonInput(ctx, cfg.Control.InputDevice, ctrl, ctrl.MotorRunning, logger)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("daemon exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// buildStrip constructs the configured strip backend.
func buildStrip(cfg StripConfig, logger *slog.Logger) (StripWriter, error) {
	switch cfg.Backend {
	case "spi":
		return newSPIStrip(cfg.SPIDevice, uint32(cfg.SPISpeedHz), cfg.PhysicalLEDs, logger)
	case "serial":
		return newSerialStrip(cfg.SerialDevice, cfg.SerialBaud, cfg.PhysicalLEDs, logger)
	case "sim":
		return newSimStrip(logger)
	case "null":
		return nullStrip{}, nil
	default:
		return nil, fmt.Errorf("unknown strip backend %q", cfg.Backend)
	}
}

// buildMotor constructs the motor driver. The sim and null strip backends
// run without hardware, so they get a no-op motor.
func buildMotor(cfg Config, logger *slog.Logger) (MotorDriver, error) {
	switch cfg.Strip.Backend {
	case "sim", "null":
		return nullMotor{}, nil
	}
	return newPWMMotor(cfg.Motor.PWMPath, cfg.Motor.DirAPath, cfg.Motor.DirBPath, logger)
}
