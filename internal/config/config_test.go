package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	controls "github.com/doingharm/go-control-bus"
	"github.com/joeycumines/logiface"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("Load = %+v, want %+v", cfg, Default())
	}
	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
	if cfg.Poll != defaultPoll || cfg.KeyHold != defaultKeyHold {
		t.Fatalf("Poll, KeyHold = %v, %v", cfg.Poll, cfg.KeyHold)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(writeConfig(t, `
log_file = "  ~/logs/input.log  "
log_level = " Debug "
poll_ms = 5
key_hold_ms = 300

[mouse]
buttons = 3
overflow = "drop"

[gamepad]
enabled = false
buttons = 12
overflow = "error"
deadzone = 0.2
sticks = [[0, 1]]
`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !strings.HasPrefix(cfg.LogFile, home) || filepath.Base(cfg.LogFile) != "input.log" {
		t.Fatalf("LogFile = %q, want input.log under HOME %q", cfg.LogFile, home)
	}
	if cfg.LogLevel != logiface.LevelDebug {
		t.Fatalf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if cfg.Poll != 5*time.Millisecond || cfg.KeyHold != 300*time.Millisecond {
		t.Fatalf("Poll, KeyHold = %v, %v", cfg.Poll, cfg.KeyHold)
	}
	if want := (Mouse{Buttons: 3, Overflow: controls.OverflowDrop}); cfg.Mouse != want {
		t.Fatalf("Mouse = %+v, want %+v", cfg.Mouse, want)
	}
	want := Gamepad{
		Enabled:  false,
		Buttons:  12,
		Overflow: controls.OverflowError,
		Deadzone: 0.2,
		Sticks:   [][2]int{{0, 1}},
	}
	if !reflect.DeepEqual(cfg.Gamepad, want) {
		t.Fatalf("Gamepad = %+v, want %+v", cfg.Gamepad, want)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(writeConfig(t, `
log_file = "   "
log_level = ""

[mouse]
overflow = ""
`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("Load = %+v, want %+v", cfg, Default())
	}
}

func TestLoad_EmptySticksDisablesPairing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(writeConfig(t, `
[gamepad]
sticks = []
`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(cfg.Gamepad.Sticks) != 0 {
		t.Fatalf("Sticks = %v, want none", cfg.Gamepad.Sticks)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cases := map[string]string{
		"syntax":        `poll_ms = `,
		"level":         `log_level = "loud"`,
		"poll":          `poll_ms = 0`,
		"key hold":      `key_hold_ms = -1`,
		"mouse buttons": "[mouse]\nbuttons = -2",
		"overflow":      "[mouse]\noverflow = \"explode\"",
		"deadzone":      "[gamepad]\ndeadzone = 1.5",
		"stick":         "[gamepad]\nsticks = [[0, 1, 2]]",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("Load(%q) returned nil error", body)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]logiface.Level{
		"trace":   logiface.LevelTrace,
		"DEBUG":   logiface.LevelDebug,
		"info":    logiface.LevelInformational,
		"warn":    logiface.LevelWarning,
		"error":   logiface.LevelError,
		" off ":   logiface.LevelDisabled,
		"notice":  logiface.LevelNotice,
		"warning": logiface.LevelWarning,
	}
	for input, want := range cases {
		got, err := ParseLevel(input)
		if err != nil {
			t.Fatalf("ParseLevel(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
