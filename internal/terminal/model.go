package terminal

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joeycumines/logiface"

	controls "github.com/doingharm/go-control-bus"
	"github.com/doingharm/go-control-bus/internal/chunk"
)

const (
	defaultPoll        = 16 * time.Millisecond
	defaultKeyHold     = 150 * time.Millisecond
	defaultHistorySize = 200
	pointerControl     = "pointer"
)

// Options configures the program.
type Options struct {
	Context context.Context
	// Source is polled every Poll, usually a Synchronizer over Keyboard,
	// Mouse and any gamepads.
	Source   controls.Source
	Keyboard *controls.Device
	Mouse    *controls.Device
	// MouseButtons maps bubbletea mouse buttons to mouse key codes.
	MouseButtons controls.ButtonTable
	Poll         time.Duration
	// KeyHold is how long after its last press a key is released.
	KeyHold     time.Duration
	HistorySize int
	Logger      *logiface.Logger[logiface.Event]
}

// Model is the bubbletea model.
type Model struct {
	ctx      context.Context
	source   controls.Source
	keyboard *controls.Device
	mouse    *controls.Device
	pointer  *controls.AnalogControl
	buttons  controls.ButtonTable
	keys     keyMap
	log      *logiface.Logger[logiface.Event]

	poll        time.Duration
	keyHold     time.Duration
	historySize int

	// held keys, by the generation of their latest press
	held       map[controls.KeyCode]uint64
	generation uint64
	// mouse buttons pressed and not yet released
	mouseHeld map[controls.KeyCode]struct{}

	history *chunk.Deque[controls.Record]
	polled  uint64
	skipped int
	paused  bool
	err     error

	width  int
	height int
}

type pollMsg time.Time

// releaseMsg ends a simulated key hold, unless the key was pressed again.
type releaseMsg struct {
	code       controls.KeyCode
	generation uint64
}

// New validates opts and builds the model.
func New(opts Options) (Model, error) {
	if opts.Source == nil || opts.Keyboard == nil || opts.Mouse == nil {
		return Model{}, errors.New("terminal requires a source, a keyboard and a mouse")
	}
	pointer, err := opts.Mouse.EnsureAnalogControl(pointerControl, 2)
	if err != nil {
		return Model{}, err
	}

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	poll := opts.Poll
	if poll <= 0 {
		poll = defaultPoll
	}
	keyHold := opts.KeyHold
	if keyHold <= 0 {
		keyHold = defaultKeyHold
	}
	historySize := opts.HistorySize
	if historySize <= 0 {
		historySize = defaultHistorySize
	}

	return Model{
		ctx:         ctx,
		source:      opts.Source,
		keyboard:    opts.Keyboard,
		mouse:       opts.Mouse,
		pointer:     pointer,
		buttons:     opts.MouseButtons,
		keys:        defaultKeyMap(),
		log:         opts.Logger,
		poll:        poll,
		keyHold:     keyHold,
		historySize: historySize,
		held:        make(map[controls.KeyCode]uint64),
		mouseHeld:   make(map[controls.KeyCode]struct{}),
		history:     new(chunk.Deque[controls.Record]),
	}, nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return pollCmd(m.poll)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case releaseMsg:
		return m.handleRelease(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case pollMsg:
		if m.ctx.Err() != nil {
			return m, tea.Quit
		}
		if !m.paused {
			m.drain()
		}
		return m, pollCmd(m.poll)
	}
	return m, nil
}

// drain is the consumer loop: every pending event is polled, which applies
// it to its control, and kept in the history.
func (m *Model) drain() {
	for {
		e, ok := m.source.PollEvent()
		if !ok {
			return
		}
		m.polled++
		m.history.PushBack(e.Record())
		for m.history.Len() > m.historySize {
			m.history.PopFront()
		}
	}
}

func (m *Model) fail(err error) {
	if err == nil {
		return
	}
	m.err = err
	m.log.Err().
		Err(err).
		Log("terminal input rejected")
}

func pollCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}

func releaseCmd(d time.Duration, code controls.KeyCode, generation uint64) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return releaseMsg{code: code, generation: generation}
	})
}

// Run starts the program and blocks until it quits or opts.Context is done.
func Run(opts Options) error {
	m, err := New(opts)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(m.ctx),
	)
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
