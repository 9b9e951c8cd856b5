// Package session sequences an interview: it fetches the questions, reveals
// them one by one, collects answers under a countdown and submits them for
// evaluation.
//
// All state is owned by a single loop goroutine started by Run. Public
// methods hand work to that loop and wait for it, so every transition is
// observed atomically.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/spigell/interview-drill/internal/capture"
	"github.com/spigell/interview-drill/internal/countdown"
	"github.com/spigell/interview-drill/internal/disclosure"
	"github.com/spigell/interview-drill/internal/evaluation"
	"github.com/spigell/interview-drill/internal/logger"
	"go.uber.org/zap"
)

var (
	// ErrNotAnswering is returned for input or advance requests outside the answering phase.
	ErrNotAnswering = errors.New("session is not accepting answers")
	// ErrClosed is returned once the session loop has stopped.
	ErrClosed = errors.New("session is closed")
	// ErrAlreadyRunning is returned when Run is called more than once.
	ErrAlreadyRunning = errors.New("session is already running")
)

// Snapshot is an immutable view of the session.
type Snapshot struct {
	SessionID string
	ResumeID  string
	State     State

	Index     int
	Total     int
	Question  string
	Revealed  string
	Typing    bool
	Answer    string
	Answers   []string
	Remaining int
	Initial   int
	TimerOn   bool
	TimerLow  bool

	Listening          bool
	DictationSupported bool

	Busy        bool
	Notice      string
	Err         error
	Submissions int
	Summary     *evaluation.Summary
}

type envelope struct {
	fn    func() error
	reply chan error
}

// Session is one run through all questions for a résumé.
type Session struct {
	id     string
	cfg    Config
	deps   Deps
	logger *zap.Logger

	// ctx bounds every collaborator call; cancelled when the loop exits.
	ctx    context.Context
	cancel context.CancelFunc

	inbox   chan envelope
	done    chan struct{}
	updates chan Snapshot
	running atomic.Bool
	last    atomic.Pointer[Snapshot]
	once    sync.Once

	// Owned by the loop goroutine.
	state       State
	questions   []string
	answers     []string
	index       int
	buffer      capture.Buffer
	timer       *countdown.Countdown
	reveal      *disclosure.Disclosure
	frame       disclosure.Frame
	revealTick  Ticker
	timerTick   Ticker
	dictation   *capture.Dictation
	fetching    bool
	submitting  bool
	submissions int
	notice      string
	err         error
	summary     *evaluation.Summary
}

// New validates the configuration and prepares a session. Nothing happens
// until Run is called.
func New(cfg Config, deps Deps) (*Session, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := deps.normalize(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		id:      id,
		cfg:     cfg,
		deps:    deps,
		logger:  logger.WithSession(deps.Logger, id, cfg.ResumeID),
		ctx:     ctx,
		cancel:  cancel,
		inbox:   make(chan envelope),
		done:    make(chan struct{}),
		updates: make(chan Snapshot, 1),
		state:   Loading,
		timer:   countdown.New(cfg.CountdownSeconds, cfg.Activation),
	}

	s.dictation = capture.NewDictation(deps.Recognizer, cfg.Dictation, capture.DictationHandlers{
		OnSegment: func(text string) { s.post(func() { s.onDictated(text) }) },
		OnError:   func(err error) { s.post(func() { s.onDictationError(err) }) },
		OnStop:    func() { s.post(func() {}) },
	}, s.logger.Named("dictation"))

	snap := s.snapshot()
	s.last.Store(&snap)

	return s, nil
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// Updates streams snapshots after every change. Only the latest snapshot is
// kept when the reader falls behind. The channel is closed when Run returns.
func (s *Session) Updates() <-chan Snapshot { return s.updates }

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() Snapshot {
	var snap Snapshot
	err := s.do(func() error {
		snap = s.snapshot()
		return nil
	})
	if err != nil {
		return *s.last.Load()
	}
	return snap
}

// TypeAnswer replaces the answer with the full current value of the input field.
func (s *Session) TypeAnswer(text string) error {
	return s.do(func() error {
		if s.state != Answering {
			return ErrNotAnswering
		}

		first, err := s.buffer.Type(text)
		if err != nil {
			return err
		}
		if first {
			s.noteFirstInput("typed")
		}
		return nil
	})
}

// Advance commits the current answer and moves on. While the submission is
// in progress it does nothing, so repeated clicks never submit twice.
func (s *Session) Advance() error {
	return s.do(func() error {
		switch s.state {
		case Answering:
			s.commitAndAdvance("advance")
			return nil
		case Submitting, Done:
			s.logger.Debug("advance ignored", zap.Stringer("state", s.state))
			return nil
		default:
			return ErrNotAnswering
		}
	})
}

// Retry repeats the last failed network call: the question fetch while
// loading or the submission while submitting. It does nothing when no call
// has failed or one is still in flight.
func (s *Session) Retry() error {
	return s.do(func() error {
		if s.err == nil {
			return nil
		}

		switch {
		case s.state == Loading && !s.fetching:
			s.fetch()
		case s.state == Submitting && !s.submitting:
			s.submit()
		}
		return nil
	})
}

// ToggleListening starts or stops dictation. Without a speech recognizer it
// only surfaces a notice. Dictation cannot be started once the answers are
// being submitted.
func (s *Session) ToggleListening() error {
	if !s.running.Load() || s.closed() {
		return ErrClosed
	}

	if err := s.do(func() error {
		if !s.dictation.Listening() && !s.acceptsDictation() {
			return ErrNotAnswering
		}
		return nil
	}); err != nil {
		return err
	}

	listening, err := s.dictation.Toggle(s.ctx)

	return s.do(func() error {
		if listening && !s.acceptsDictation() {
			s.dictation.Stop()
			return ErrNotAnswering
		}

		switch {
		case errors.Is(err, capture.ErrDictationUnsupported):
			s.notice = capture.UnsupportedNotice
			s.logger.Info("dictation unavailable, typed input only")
		case err != nil:
			s.notice = "Dictation could not start: " + err.Error()
		default:
			s.notice = ""
			s.logger.Debug("dictation toggled", zap.Bool("listening", listening))
		}
		return nil
	})
}

func (s *Session) acceptsDictation() bool {
	switch s.state {
	case Presenting, Answering, Transitioning:
		return true
	default:
		return false
	}
}

func (s *Session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// do runs fn on the loop and waits for it and the following publish.
func (s *Session) do(fn func() error) error {
	if !s.running.Load() {
		return ErrClosed
	}

	reply := make(chan error, 1)
	select {
	case s.inbox <- envelope{fn: fn, reply: reply}:
	case <-s.done:
		return ErrClosed
	}

	return <-reply
}

// post queues fn on the loop without waiting. It is dropped once the loop has stopped.
func (s *Session) post(fn func()) {
	select {
	case s.inbox <- envelope{fn: func() error { fn(); return nil }}:
	case <-s.done:
	}
}

func (s *Session) snapshot() Snapshot {
	answers := make([]string, len(s.answers))
	copy(answers, s.answers)

	snap := Snapshot{
		SessionID:          s.id,
		ResumeID:           s.cfg.ResumeID,
		State:              s.state,
		Index:              s.index,
		Total:              len(s.questions),
		Revealed:           s.frame.Prefix,
		Typing:             s.frame.Typing,
		Answer:             s.buffer.Text(),
		Answers:            answers,
		Remaining:          s.timer.Remaining(),
		Initial:            s.timer.Initial(),
		TimerOn:            s.timer.Active(),
		TimerLow:           s.timer.Low(),
		Listening:          s.dictation.Listening(),
		DictationSupported: s.dictation.Supported(),
		Busy:               s.fetching || s.submitting,
		Notice:             s.notice,
		Err:                s.err,
		Submissions:        s.submissions,
		Summary:            s.summary,
	}

	if s.index < len(s.questions) {
		snap.Question = s.questions[s.index]
	}

	return snap
}
