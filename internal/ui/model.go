package ui

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"conswol/internal/project"
	"conswol/internal/session"
	"conswol/internal/trace"
)

// DefaultInterval is the redraw cycle of the session.
const DefaultInterval = 50 * time.Millisecond

// Model is the Bubble Tea front-end. Key presses are queued and applied on
// the next tick, which runs one session cycle.
type Model struct {
	ctx      context.Context
	project  *project.Project
	loop     *session.Loop
	queue    *session.Queue
	state    session.State
	keys     keyMap
	spinner  spinner.Model
	interval time.Duration
	width    int
	height   int
	status   atomic.Pointer[string]
	// quit is set when a quit key did not fit in the queue.
	quit bool
}

type tickMsg time.Time

// NewModel returns a model bound to p. interval <= 0 selects DefaultInterval.
func NewModel(ctx context.Context, p *project.Project, loop *session.Loop, interval time.Duration) *Model {
	if interval <= 0 {
		interval = DefaultInterval
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	m := &Model{
		ctx:      ctx,
		project:  p,
		loop:     loop,
		queue:    session.NewQueue(64),
		state:    session.Initial(),
		keys:     defaultKeyMap(),
		spinner:  sp,
		interval: interval,
		width:    80,
		height:   24,
	}
	m.publish()
	return m
}

// State returns the session state after the last cycle.
func (m *Model) State() session.State { return m.state }

// Status returns a one-line description of the build state. Safe to call
// from any goroutine.
func (m *Model) Status() string {
	if s := m.status.Load(); s != nil {
		return *s
	}
	return ""
}

func (m *Model) publish() {
	s := statusLine(m.state)
	m.status.Store(&s)
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tick())
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		k := m.keys.lookup(msg)
		if k != session.KeyNone && !m.queue.Push(k) {
			if k == session.KeyQuit {
				m.quit = true
			}
			trace.Point(trace.FromContext(m.ctx), trace.ScopeInput, "key dropped", k.String(), trace.ParentSpan(m.ctx))
		}
		return m, nil
	case tickMsg:
		keys := m.queue.Drain()
		if m.quit {
			keys = append(keys, session.KeyQuit)
		}
		m.state = m.loop.Step(m.ctx, m.state, keys)
		m.publish()
		if m.state.Quit {
			return m, tea.Quit
		}
		return m, m.tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
		if msg.Height > 0 {
			m.height = msg.Height
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) View() string {
	return render(frame{
		state:   m.state,
		project: m.project,
		keys:    m.keys,
		spinner: m.spinner.View(),
		width:   m.width,
		height:  m.height,
	})
}

// Run starts the program in the alternate screen and blocks until quit.
func Run(ctx context.Context, m *Model) (session.State, error) {
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return m.State(), err
}
