package console

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spigell/interview-drill/internal/evaluation"
	"github.com/spigell/interview-drill/internal/session"
)

type recordingControls struct {
	typed    []string
	advances int
	toggles  int
	retries  int
	err      error
}

func (r *recordingControls) TypeAnswer(text string) error {
	r.typed = append(r.typed, text)
	return r.err
}

func (r *recordingControls) Advance() error {
	r.advances++
	return r.err
}

func (r *recordingControls) ToggleListening() error {
	r.toggles++
	return nil
}

func (r *recordingControls) Retry() error {
	r.retries++
	return nil
}

func answering(answer string) session.Snapshot {
	return session.Snapshot{
		State:     session.Answering,
		Index:     0,
		Total:     2,
		Question:  "Tell me about yourself.",
		Revealed:  "Tell me about yourself.",
		Answer:    answer,
		Remaining: 180,
		Initial:   180,
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()

	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return model, cmd
}

func TestTypedKeysReachSession(t *testing.T) {
	t.Parallel()

	controls := &recordingControls{}
	m := NewModel(controls, nil, session.Snapshot{}, Options{NoColor: true})

	m, _ = update(t, m, snapshotMsg(answering("")))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("h")})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("i")})

	if len(controls.typed) != 2 || controls.typed[1] != "hi" {
		t.Fatalf("expected full field value on every change, got %q", controls.typed)
	}
}

func TestKeysIgnoredWhilePresenting(t *testing.T) {
	t.Parallel()

	controls := &recordingControls{}
	m := NewModel(controls, nil, session.Snapshot{}, Options{NoColor: true})

	m, _ = update(t, m, snapshotMsg(session.Snapshot{State: session.Presenting, Total: 2, Revealed: "Tell", Typing: true}))
	_, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})

	if len(controls.typed) != 0 {
		t.Fatalf("typed input must not reach the session while presenting: %q", controls.typed)
	}
}

func TestShortcuts(t *testing.T) {
	t.Parallel()

	controls := &recordingControls{}
	m := NewModel(controls, nil, session.Snapshot{}, Options{NoColor: true})
	m, _ = update(t, m, snapshotMsg(answering("")))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})

	if controls.advances != 1 || controls.retries != 1 {
		t.Fatalf("unexpected calls: advances=%d retries=%d", controls.advances, controls.retries)
	}
	if cmd == nil {
		t.Fatal("expected toggle command")
	}
	if msg := cmd(); msg != (actionMsg{}) || controls.toggles != 1 {
		t.Fatalf("expected toggle to run in command, got %v toggles=%d", msg, controls.toggles)
	}
}

func TestActionErrorIsShown(t *testing.T) {
	t.Parallel()

	controls := &recordingControls{err: errors.New("session is closed")}
	m := NewModel(controls, nil, session.Snapshot{}, Options{NoColor: true})
	m, _ = update(t, m, snapshotMsg(answering("")))

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	m, _ = update(t, m, cmd())

	if !strings.Contains(m.View(), "session is closed") {
		t.Fatalf("expected failure in view:\n%s", m.View())
	}
}

func TestDictatedTextIsMirrored(t *testing.T) {
	t.Parallel()

	m := NewModel(&recordingControls{}, nil, session.Snapshot{}, Options{NoColor: true})
	m, _ = update(t, m, snapshotMsg(answering("")))
	m, _ = update(t, m, snapshotMsg(answering("hello world ")))

	if got := m.input.Value(); got != "hello world " {
		t.Fatalf("expected dictated text in field, got %q", got)
	}

	m, _ = update(t, m, snapshotMsg(answering("hello")))
	if got := m.input.Value(); got != "hello world " {
		t.Fatalf("stale snapshot must not shrink the field, got %q", got)
	}

	next := answering("")
	next.Index = 1
	next.State = session.Presenting
	m, _ = update(t, m, snapshotMsg(next))
	if got := m.input.Value(); got != "" {
		t.Fatalf("field must be cleared for the next question, got %q", got)
	}
}

func TestViewStates(t *testing.T) {
	t.Parallel()

	m := NewModel(&recordingControls{}, nil, session.Snapshot{}, Options{NoColor: true})

	m, _ = update(t, m, snapshotMsg(session.Snapshot{State: session.Presenting, Total: 3, Index: 1, Revealed: "Desc", Typing: true, Remaining: 180, Initial: 180}))
	view := m.View()
	for _, want := range []string{"Question 2 of 3", "Desc" + cursor, "3:00"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}

	m, _ = update(t, m, snapshotMsg(session.Snapshot{State: session.Submitting, Total: 3, Err: errors.New("bad gateway")}))
	if view := m.View(); !strings.Contains(view, "bad gateway") || !strings.Contains(view, "ctrl+r") {
		t.Fatalf("expected retry hint:\n%s", view)
	}

	summary := evaluation.Reduce("Overall Score: 64\nTechnical Skills: 70\nKeep answers shorter.")
	m, _ = update(t, m, snapshotMsg(session.Snapshot{State: session.Done, Summary: &summary}))
	view = m.View()
	for _, want := range []string{"Interview results", "64", "Keep answers shorter."} {
		if !strings.Contains(view, want) {
			t.Fatalf("summary view missing %q:\n%s", want, view)
		}
	}
}

func TestSessionEndQuits(t *testing.T) {
	t.Parallel()

	m := NewModel(&recordingControls{}, nil, session.Snapshot{}, Options{NoColor: true})
	m, _ = update(t, m, snapshotMsg(session.Snapshot{State: session.Loading}))

	_, cmd := update(t, m, sessionEndedMsg{})
	if cmd == nil {
		t.Fatal("expected quit when the session stops early")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected quit message")
	}

	summary := evaluation.Reduce("")
	m, _ = update(t, m, snapshotMsg(session.Snapshot{State: session.Done, Summary: &summary}))
	m, cmd = update(t, m, sessionEndedMsg{})
	if cmd != nil {
		t.Fatal("finished session should stay on screen")
	}
	if _, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd == nil {
		t.Fatal("expected q to quit after the session finished")
	}
}

func TestWaitForSnapshot(t *testing.T) {
	t.Parallel()

	updates := make(chan session.Snapshot, 1)
	updates <- session.Snapshot{State: session.Answering}

	msg := waitForSnapshot(updates)()
	if snap, ok := msg.(snapshotMsg); !ok || snap.State != session.Answering {
		t.Fatalf("unexpected message %#v", msg)
	}

	close(updates)
	if _, ok := waitForSnapshot(updates)().(sessionEndedMsg); !ok {
		t.Fatal("expected end message after close")
	}
}

func TestDashboardKeepsResult(t *testing.T) {
	t.Parallel()

	var d Dashboard
	if _, ok := d.Result(); ok {
		t.Fatal("expected no result before Show")
	}

	if err := d.Show(context.Background(), session.Result{ResumeID: "r1"}); err != nil {
		t.Fatalf("Show returned error: %v", err)
	}
	if result, ok := d.Result(); !ok || result.ResumeID != "r1" {
		t.Fatalf("unexpected result %+v", result)
	}
}
