package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	controls "github.com/doingharm/go-control-bus"
	"github.com/joeycumines/logiface"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is the resolved inputview configuration.
type Config struct {
	LogFile  string
	LogLevel logiface.Level
	// Poll is how often the UI drains the synchronizer.
	Poll time.Duration
	// KeyHold is how long a key counts as held, terminals only report presses.
	KeyHold time.Duration
	Mouse   Mouse
	Gamepad Gamepad
}

// Mouse configures the terminal mouse device.
type Mouse struct {
	Buttons  int
	Overflow controls.OverflowPolicy
}

// Gamepad configures the gamepad bus.
type Gamepad struct {
	Enabled  bool
	Buttons  int
	Overflow controls.OverflowPolicy
	Deadzone float64
	Sticks   [][2]int
}

const (
	defaultConfigPath = "~/.config/inputview/config.toml"
	defaultLogFile    = "~/.local/share/inputview/inputview.log"
	defaultLogLevel   = logiface.LevelInformational
	defaultPoll       = 16 * time.Millisecond
	defaultKeyHold    = 150 * time.Millisecond
	defaultMouseBtns  = 5
	defaultDeadzone   = 0.05
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		LogFile:  mustExpand(defaultLogFile),
		LogLevel: defaultLogLevel,
		Poll:     defaultPoll,
		KeyHold:  defaultKeyHold,
		Mouse:    Mouse{Buttons: defaultMouseBtns},
		Gamepad: Gamepad{
			Enabled:  true,
			Deadzone: defaultDeadzone,
			Sticks:   [][2]int{{0, 1}, {3, 4}},
		},
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		LogFile   string `toml:"log_file"`
		LogLevel  string `toml:"log_level"`
		PollMS    *int   `toml:"poll_ms"`
		KeyHoldMS *int   `toml:"key_hold_ms"`
		Mouse     struct {
			Buttons  *int   `toml:"buttons"`
			Overflow string `toml:"overflow"`
		} `toml:"mouse"`
		Gamepad struct {
			Enabled  *bool    `toml:"enabled"`
			Buttons  *int     `toml:"buttons"`
			Overflow string   `toml:"overflow"`
			Deadzone *float64 `toml:"deadzone"`
			Sticks   [][]int  `toml:"sticks"`
		} `toml:"gamepad"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		cfg.LogFile = mustExpand(logFile)
	}
	if level := strings.TrimSpace(raw.LogLevel); level != "" {
		if cfg.LogLevel, err = ParseLevel(level); err != nil {
			return Config{}, err
		}
	}
	if raw.PollMS != nil {
		if *raw.PollMS <= 0 {
			return Config{}, fmt.Errorf("poll_ms must be positive, got %d", *raw.PollMS)
		}
		cfg.Poll = time.Duration(*raw.PollMS) * time.Millisecond
	}
	if raw.KeyHoldMS != nil {
		if *raw.KeyHoldMS <= 0 {
			return Config{}, fmt.Errorf("key_hold_ms must be positive, got %d", *raw.KeyHoldMS)
		}
		cfg.KeyHold = time.Duration(*raw.KeyHoldMS) * time.Millisecond
	}

	if raw.Mouse.Buttons != nil {
		if cfg.Mouse.Buttons, err = buttons("mouse", *raw.Mouse.Buttons); err != nil {
			return Config{}, err
		}
	}
	if cfg.Mouse.Overflow, err = overflow("mouse", raw.Mouse.Overflow); err != nil {
		return Config{}, err
	}

	if raw.Gamepad.Enabled != nil {
		cfg.Gamepad.Enabled = *raw.Gamepad.Enabled
	}
	if raw.Gamepad.Buttons != nil {
		if cfg.Gamepad.Buttons, err = buttons("gamepad", *raw.Gamepad.Buttons); err != nil {
			return Config{}, err
		}
	}
	if cfg.Gamepad.Overflow, err = overflow("gamepad", raw.Gamepad.Overflow); err != nil {
		return Config{}, err
	}
	if raw.Gamepad.Deadzone != nil {
		dz := *raw.Gamepad.Deadzone
		if dz < 0 || dz >= 1 {
			return Config{}, fmt.Errorf("gamepad.deadzone must be in [0, 1), got %v", dz)
		}
		cfg.Gamepad.Deadzone = dz
	}
	if raw.Gamepad.Sticks != nil {
		cfg.Gamepad.Sticks = make([][2]int, 0, len(raw.Gamepad.Sticks))
		for _, stick := range raw.Gamepad.Sticks {
			if len(stick) != 2 {
				return Config{}, fmt.Errorf("gamepad.sticks entries need two axes, got %v", stick)
			}
			cfg.Gamepad.Sticks = append(cfg.Gamepad.Sticks, [2]int{stick[0], stick[1]})
		}
	}

	return cfg, nil
}

// ParseLevel parses a syslog style level name such as "debug" or "warning".
func ParseLevel(s string) (logiface.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logiface.LevelTrace, nil
	case "debug":
		return logiface.LevelDebug, nil
	case "info", "informational":
		return logiface.LevelInformational, nil
	case "notice":
		return logiface.LevelNotice, nil
	case "warn", "warning":
		return logiface.LevelWarning, nil
	case "err", "error":
		return logiface.LevelError, nil
	case "disabled", "off":
		return logiface.LevelDisabled, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func buttons(section string, n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%s.buttons must not be negative, got %d", section, n)
	}
	return n, nil
}

func overflow(section, s string) (controls.OverflowPolicy, error) {
	p, err := controls.ParseOverflowPolicy(s)
	if err != nil {
		return 0, fmt.Errorf("%s.overflow: %w", section, err)
	}
	return p, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
