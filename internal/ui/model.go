// Package ui provides the Bubbletea control surface used by tubesat play:
// live input and output meters plus keyboard editing of every parameter.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwbudde/algo-tube/engine"
)

// DefaultInterval is the meter redraw cadence.
const DefaultInterval = 50 * time.Millisecond

// Controller is the part of the engine the UI drives.
type Controller interface {
	Config() engine.Config
	Apply(cfg engine.Config) error
	InputLevel() float64
	OutputLevel() float64
}

// CaptureFunc toggles output capture and returns a status line.
type CaptureFunc func() (string, error)

type tickMsg time.Time

type doneMsg struct{}

// Option configures a [Model].
type Option func(*Model)

// WithTitle sets the header line.
func WithTitle(title string) Option {
	return func(m *Model) { m.title = title }
}

// WithInterval sets the meter redraw cadence.
func WithInterval(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithCapture binds the record key.
func WithCapture(fn CaptureFunc) Option {
	return func(m *Model) { m.capture = fn }
}

// WithDone quits the program once done is closed.
func WithDone(done <-chan struct{}) Option {
	return func(m *Model) { m.done = done }
}

// Model is the Bubbletea model for live playback.
type Model struct {
	ctrl     Controller
	title    string
	interval time.Duration
	capture  CaptureFunc
	done     <-chan struct{}

	cfg     engine.Config
	cursor  int
	in, out float64
	status  string
	err     error
	width   int
}

// NewModel creates a model bound to ctrl.
func NewModel(ctrl Controller, opts ...Option) Model {
	m := Model{
		ctrl:     ctrl,
		title:    "tubesat",
		interval: DefaultInterval,
		cfg:      ctrl.Config(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}

	return m
}

// Init starts the meter ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(m.interval), waitDone(m.done))
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func waitDone(done <-chan struct{}) tea.Cmd {
	if done == nil {
		return nil
	}

	return func() tea.Msg {
		<-done
		return doneMsg{}
	}
}

// Update handles key presses, meter ticks and end of input.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		m.in = m.ctrl.InputLevel()
		m.out = m.ctrl.OutputLevel()

		return m, tick(m.interval)

	case doneMsg:
		m.status = "end of input"
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		m.cursor = max(m.cursor-1, 0)
	case "down", "j":
		m.cursor = min(m.cursor+1, len(params)-1)
	case "left", "h":
		m = m.adjust(-1)
	case "right", "l":
		m = m.adjust(1)
	case "shift+left", "H":
		m = m.adjust(-10)
	case "shift+right", "L":
		m = m.adjust(10)
	case "0":
		m = m.apply(engine.DefaultConfig(), "defaults restored")
	case "r":
		if m.capture != nil {
			m.status, m.err = m.capture()
		}
	}

	return m, nil
}

func (m Model) adjust(dir int) Model {
	cfg := m.ctrl.Config()
	params[m.cursor].adjust(&cfg, dir)

	return m.apply(cfg, "")
}

func (m Model) apply(cfg engine.Config, status string) Model {
	if err := m.ctrl.Apply(cfg); err != nil {
		m.err = err
		return m
	}

	m.cfg = m.ctrl.Config()
	m.err = nil
	m.status = status

	return m
}
