package terminal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	controls "github.com/doingharm/go-control-bus"
)

const peekLimit = 8

type styles struct {
	Title    lipgloss.Style
	Section  lipgloss.Style
	Device   lipgloss.Style
	Pressed  lipgloss.Style
	Released lipgloss.Style
	Analog   lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#bd93f9")),
		Section: lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			MarginTop(1),
		Device: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8be9fd")).
			Width(12),
		Pressed: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#282a36")).
			Background(lipgloss.Color("#50fa7b")).
			Padding(0, 1),
		Released: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272a4")).
			Padding(0, 1),
		Analog: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f1fa8c")).
			Padding(0, 1),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272a4")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff5555")),
	}
}

var theme = defaultStyles()

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	status := fmt.Sprintf("polled %d  pending %d", m.polled, m.source.EventQueueSize())
	if m.skipped != 0 {
		status += fmt.Sprintf("  skipped %d", m.skipped)
	}
	if m.paused {
		status += "  PAUSED"
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		theme.Title.Render("inputview"),
		"  ",
		theme.Muted.Render(status),
	))
	b.WriteByte('\n')

	b.WriteString(theme.Section.Render("Controls"))
	b.WriteByte('\n')
	b.WriteString(m.renderControls())

	if m.paused {
		b.WriteString(theme.Section.Render("Pending"))
		b.WriteByte('\n')
		for i := 0; i < peekLimit; i++ {
			e, ok := m.source.PeekEvent(i)
			if !ok {
				break
			}
			b.WriteString(e.Record().String())
			b.WriteByte('\n')
		}
	}

	b.WriteString(theme.Section.Render("History"))
	b.WriteByte('\n')
	for _, r := range m.recentHistory() {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}

	if m.err != nil {
		b.WriteString(theme.Error.Render(m.err.Error()))
		b.WriteByte('\n')
	}
	b.WriteString(m.renderHelp())

	return b.String()
}

// renderControls prints one line per device, controls in discovery order.
func (m Model) renderControls() string {
	var (
		b      strings.Builder
		device *controls.Device
		line   []string
	)
	flush := func() {
		if device == nil {
			return
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			append([]string{theme.Device.Render(device.Name())}, line...)...,
		))
		b.WriteByte('\n')
		line = line[:0]
	}
	for _, c := range m.source.Controls() {
		if d := c.Device(); d != device {
			flush()
			device = d
		}
		line = append(line, renderControl(c))
	}
	flush()
	return b.String()
}

func renderControl(c controls.Control) string {
	switch c := c.(type) {
	case *controls.BooleanControl:
		if c.Pressed() {
			return theme.Pressed.Render(c.Name())
		}
		return theme.Released.Render(c.Name())
	case *controls.AnalogControl:
		return theme.Analog.Render(c.String())
	default:
		panic(fmt.Sprintf("terminal: unhandled control type %T", c))
	}
}

// recentHistory is the tail of the history that fits the window.
func (m Model) recentHistory() []controls.Record {
	records := m.history.AppendTo(nil, 0)
	if m.height > 0 {
		// title, sections, help and some control lines
		room := max(m.height-12, 1)
		if len(records) > room {
			records = records[len(records)-room:]
		}
	}
	return records
}

func (m Model) renderHelp() string {
	parts := make([]string, 0, len(m.keys.help()))
	for _, binding := range m.keys.help() {
		h := binding.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return theme.Muted.Render(strings.Join(parts, "  •  "))
}
