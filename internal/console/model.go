// Package console hosts an interview session in the terminal.
package console

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spigell/interview-drill/internal/session"
)

// Controls are the session operations bound to keys.
type Controls interface {
	TypeAnswer(text string) error
	Advance() error
	ToggleListening() error
	Retry() error
}

// Options configures the console model.
type Options struct {
	NoColor bool
}

// Model renders a session and routes key presses to it.
type Model struct {
	controls Controls
	updates  <-chan session.Snapshot
	snap     session.Snapshot
	input    textarea.Model
	spinner  spinner.Model
	noColor  bool
	width    int
	index    int
	failure  string
	ended    bool
}

// NewModel constructs a console model for a session.
func NewModel(controls Controls, updates <-chan session.Snapshot, initial session.Snapshot, opts Options) Model {
	input := textarea.New()
	input.Placeholder = "Type your answer..."
	input.ShowLineNumbers = false
	input.SetHeight(6)

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return Model{
		controls: controls,
		updates:  updates,
		snap:     initial,
		input:    input,
		spinner:  spin,
		noColor:  opts.NoColor,
		index:    -1,
	}
}

// Init waits for the first snapshot and starts the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForSnapshot(m.updates), m.spinner.Tick, textarea.Blink)
}

// Update consumes snapshots, key presses and spinner ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.input.SetWidth(max(typed.Width-4, 20))
		return m, nil
	case snapshotMsg:
		m = m.applySnapshot(session.Snapshot(typed))
		return m, waitForSnapshot(m.updates)
	case sessionEndedMsg:
		m.ended = true
		if m.snap.State != session.Done {
			return m, tea.Quit
		}
		return m, nil
	case actionMsg:
		m.failure = ""
		if typed.err != nil {
			m.failure = typed.err.Error()
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(typed)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(typed)
	}

	return m, nil
}

func (m Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc", "enter":
		if m.ended {
			return m, tea.Quit
		}
	case "ctrl+n":
		return m, m.act(m.controls.Advance)
	case "ctrl+r":
		return m, m.act(m.controls.Retry)
	case "ctrl+l":
		// Starting a recognizer may take a while; keep the UI responsive.
		controls := m.controls
		return m, func() tea.Msg { return actionMsg{err: controls.ToggleListening()} }
	}

	if m.snap.State != session.Answering {
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	if value := m.input.Value(); value != before {
		if err := m.controls.TypeAnswer(value); err != nil {
			m.failure = err.Error()
		}
	}

	return m, cmd
}

// act runs a fast session operation inline so its effects are ordered with
// typed input.
func (m Model) act(fn func() error) tea.Cmd {
	err := fn()
	return func() tea.Msg { return actionMsg{err: err} }
}

func (m Model) applySnapshot(snap session.Snapshot) Model {
	if snap.Index != m.index {
		m.input.Reset()
		m.index = snap.Index
	}

	// Dictated segments are appended by the session; older snapshots that
	// lag behind typed input are ignored.
	current := m.input.Value()
	if snap.State == session.Answering && len(snap.Answer) > len(current) && strings.HasPrefix(snap.Answer, current) {
		m.input.SetValue(snap.Answer)
	}

	if snap.State == session.Answering {
		m.input.Focus()
	} else {
		m.input.Blur()
	}

	m.snap = snap
	return m
}

// View renders the current question, timer, answer field and status.
func (m Model) View() string {
	if m.snap.State == session.Done && m.snap.Summary != nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			RenderSummary(*m.snap.Summary, m.noColor),
			stylize("press q to exit", m.noColor, colorMuted),
		)
	}

	sections := []string{renderHeader(m.snap, m.noColor)}

	if m.snap.Total > 0 {
		sections = append(sections, renderQuestion(m.snap, m.noColor))
		sections = append(sections, renderTimer(m.snap, m.noColor))
		if m.snap.State == session.Answering {
			sections = append(sections, m.input.View())
		}
	}

	if status := renderStatus(m.snap, m.spinner.View(), m.noColor); status != "" {
		sections = append(sections, status)
	}
	if m.failure != "" {
		sections = append(sections, stylize(m.failure, m.noColor, colorError))
	}
	sections = append(sections, renderHelp(m.snap, m.noColor))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type snapshotMsg session.Snapshot

type sessionEndedMsg struct{}

type actionMsg struct {
	err error
}

// waitForSnapshot blocks until the session publishes a snapshot.
func waitForSnapshot(updates <-chan session.Snapshot) tea.Cmd {
	return func() tea.Msg {
		if updates == nil {
			return nil
		}
		snap, ok := <-updates
		if !ok {
			return sessionEndedMsg{}
		}
		return snapshotMsg(snap)
	}
}
