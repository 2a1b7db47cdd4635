package terminal

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/exp/slices"

	controls "github.com/doingharm/go-control-bus"
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		return m, nil
	case key.Matches(msg, m.keys.FastForward):
		m.skipped += m.source.FastForward()
		return m, nil
	case key.Matches(msg, m.keys.Clear):
		for m.history.Len() != 0 {
			m.history.PopFront()
		}
		return m, nil
	}

	code, ok := keyCode(msg)
	if !ok {
		return m, nil
	}

	// Terminals repeat presses while a key is down and never report the
	// release, so a key stays held until KeyHold passes without a repeat.
	m.generation++
	if _, held := m.held[code]; !held {
		m.fail(m.keyboard.EnqueueKeyEvent(code, controls.Press, m.keyboard.Now()))
	}
	m.held[code] = m.generation
	return m, releaseCmd(m.keyHold, code, m.generation)
}

func (m Model) handleRelease(msg releaseMsg) (tea.Model, tea.Cmd) {
	if generation, held := m.held[msg.code]; !held || generation != msg.generation {
		return m, nil
	}
	delete(m.held, msg.code)
	m.fail(m.keyboard.EnqueueKeyEvent(msg.code, controls.Release, m.keyboard.Now()))
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	event := tea.MouseEvent(msg)
	now := m.mouse.Now()

	switch event.Action {
	case tea.MouseActionMotion:
		m.fail(m.mouse.EnqueueAnalogEvent(m.pointer, []float64{float64(event.X), float64(event.Y)}, now))

	case tea.MouseActionPress:
		code, ok := m.mouseCode(event.Button)
		if !ok {
			return m, nil
		}
		m.fail(m.mouse.EnqueueKeyEvent(code, controls.Press, now))
		if event.IsWheel() {
			// wheel notches have no release
			m.fail(m.mouse.EnqueueKeyEvent(code, controls.Release, now))
			return m, nil
		}
		m.mouseHeld[code] = struct{}{}

	case tea.MouseActionRelease:
		if code, ok := m.mouseCode(event.Button); ok {
			if _, held := m.mouseHeld[code]; held {
				delete(m.mouseHeld, code)
				m.fail(m.mouse.EnqueueKeyEvent(code, controls.Release, now))
			}
			return m, nil
		}
		// X10 and some other protocols release without naming the button
		held := make([]controls.KeyCode, 0, len(m.mouseHeld))
		for code := range m.mouseHeld {
			held = append(held, code)
		}
		slices.Sort(held)
		for _, code := range held {
			m.fail(m.mouse.EnqueueKeyEvent(code, controls.Release, now))
		}
		clear(m.mouseHeld)
	}
	return m, nil
}

// mouseCode resolves a bubbletea button through the mouse button table.
func (m *Model) mouseCode(b tea.MouseButton) (controls.KeyCode, bool) {
	index, ok := mouseButtonIndex(b)
	if !ok {
		return 0, false
	}
	code, ok, err := m.buttons.Lookup(index)
	if err != nil {
		m.fail(err)
		return 0, false
	}
	if !ok {
		m.log.Debug().
			Int("button", index).
			Log("dropped mouse button beyond table")
	}
	return code, ok
}
