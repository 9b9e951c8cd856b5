// Package loading tracks outstanding network calls for a busy indicator.
package loading

import (
	"sync"

	"go.uber.org/zap"
)

// Indicator is acquired around every network call. The returned release
// function must be called on every exit path; calling it twice is harmless.
type Indicator interface {
	Acquire(operation string) (release func())
}

// Tracker is a reference-counted Indicator. It is active while at least one
// acquisition has not been released.
type Tracker struct {
	mu       sync.Mutex
	inflight map[string]int
	total    int
	onChange func(active bool)
	logger   *zap.Logger
}

// NewTracker creates a tracker. onChange, when set, is called each time the
// tracker switches between idle and active.
func NewTracker(onChange func(active bool), logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Tracker{
		inflight: make(map[string]int),
		onChange: onChange,
		logger:   logger,
	}
}

func (t *Tracker) Acquire(operation string) func() {
	t.mu.Lock()
	t.inflight[operation]++
	t.total++
	becameActive := t.total == 1
	t.mu.Unlock()

	t.logger.Debug("loading started", zap.String("operation", operation))
	if becameActive && t.onChange != nil {
		t.onChange(true)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			t.release(operation)
		})
	}
}

func (t *Tracker) release(operation string) {
	t.mu.Lock()
	t.inflight[operation]--
	if t.inflight[operation] <= 0 {
		delete(t.inflight, operation)
	}
	t.total--
	becameIdle := t.total == 0
	t.mu.Unlock()

	t.logger.Debug("loading finished", zap.String("operation", operation))
	if becameIdle && t.onChange != nil {
		t.onChange(false)
	}
}

// Active reports whether any acquisition is outstanding.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total > 0
}

// Operations returns the number of outstanding acquisitions per operation.
func (t *Tracker) Operations() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]int, len(t.inflight))
	for name, count := range t.inflight {
		out[name] = count
	}
	return out
}

type nop struct{}

// Nop returns an Indicator that does nothing.
func Nop() Indicator { return nop{} }

func (nop) Acquire(string) func() { return func() {} }
