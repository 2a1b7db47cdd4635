// Command inputview shows the live state of keyboard, mouse and gamepad
// controls in the terminal, polling them through one synchronized event
// stream.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"

	controls "github.com/doingharm/go-control-bus"
	"github.com/doingharm/go-control-bus/gamepad"
	"github.com/doingharm/go-control-bus/internal/config"
	"github.com/doingharm/go-control-bus/internal/terminal"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config path (optional, defaults to ~/.config/inputview/config.toml)")
	logLevel := flag.String("log-level", "", "override the configured log level (optional)")
	noGamepad := flag.Bool("no-gamepad", false, "do not watch for gamepads")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inputview: load config: %v\n", err)
		return 1
	}
	if *logLevel != "" {
		if cfg.LogLevel, err = config.ParseLevel(*logLevel); err != nil {
			fmt.Fprintf(os.Stderr, "inputview: %v\n", err)
			return 1
		}
	}
	if *noGamepad {
		cfg.Gamepad.Enabled = false
	}

	if err := serve(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "inputview: %v\n", err)
		return 1
	}
	return 0
}

func serve(ctx context.Context, cfg config.Config) error {
	// the terminal belongs to the UI, logs go to a file
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(logFile)),
		stumpy.L.WithLevel(cfg.LogLevel),
	).Logger()

	keyboard, err := controls.NewDevice("keyboard",
		controls.WithLogger(logger),
		controls.WithKeyNamer(terminal.KeyName),
	)
	if err != nil {
		return err
	}
	mouse, err := controls.NewDevice("mouse", controls.WithLogger(logger))
	if err != nil {
		return err
	}
	buttons, err := controls.NewButtonTable(controls.MouseButtonBase, cfg.Mouse.Buttons, cfg.Mouse.Overflow)
	if err != nil {
		return fmt.Errorf("mouse buttons: %w", err)
	}

	sync, err := controls.NewSynchronizer([]*controls.Device{keyboard, mouse}, controls.WithLogger(logger))
	if err != nil {
		return err
	}

	if cfg.Gamepad.Enabled {
		bus, err := startGamepads(ctx, cfg.Gamepad, sync, logger)
		if err != nil {
			return err
		}
		if bus != nil {
			defer func() {
				if err := bus.Close(); err != nil {
					logger.Warning().Err(err).Log("gamepad bus close")
				}
			}()
		}
	}

	logger.Info().
		Dur("poll", cfg.Poll).
		Dur("key_hold", cfg.KeyHold).
		Bool("gamepad", cfg.Gamepad.Enabled).
		Log("inputview starting")

	return terminal.Run(terminal.Options{
		Context:      ctx,
		Source:       sync,
		Keyboard:     keyboard,
		Mouse:        mouse,
		MouseButtons: buttons,
		Poll:         cfg.Poll,
		KeyHold:      cfg.KeyHold,
		Logger:       logger,
	})
}

// startGamepads returns a nil bus when gamepads are unavailable on this
// machine, which is not fatal.
func startGamepads(ctx context.Context, cfg config.Gamepad, sync *controls.Synchronizer, logger *logiface.Logger[logiface.Event]) (*gamepad.Bus, error) {
	bus, err := gamepad.New(ctx, gamepad.Options{
		Buttons:  cfg.Buttons,
		Overflow: cfg.Overflow,
		Deadzone: cfg.Deadzone,
		Sticks:   cfg.Sticks,
		Logger:   logger,
		OnDevice: sync.AddDevice,
	})
	switch {
	case errors.Is(err, gamepad.ErrOSNotSupported), errors.Is(err, os.ErrNotExist), errors.Is(err, os.ErrPermission):
		logger.Warning().
			Err(err).
			Log("gamepads unavailable")
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("gamepads: %w", err)
	}

	go func() {
		for err := range bus.Errors() {
			logger.Warning().
				Err(err).
				Log("gamepad")
		}
	}()

	return bus, nil
}
