package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrDictationUnsupported is returned when the host offers no speech recognition.
var ErrDictationUnsupported = errors.New("speech recognition is not supported in this environment")

// UnsupportedNotice is the user-facing message shown when dictation is unavailable.
const UnsupportedNotice = "Speech recognition is not available here. Please type your answer."

// Result is one recognition event. Interim results may be revised later;
// only Final results are committed to the answer.
type Result struct {
	Text  string
	Final bool
	Err   error
}

// Options configures a recognition stream.
type Options struct {
	Continuous bool
	Interim    bool
	Language   string
}

// Recognizer is a host speech-to-text capability. Start begins a stream that
// is closed when ctx is cancelled or the engine stops on its own.
type Recognizer interface {
	Start(ctx context.Context, opts Options) (<-chan Result, error)
}

// DictationHandlers receive stream events. They are called from the stream
// goroutine and must not block for long.
type DictationHandlers struct {
	OnSegment func(text string)
	OnError   func(err error)
	OnStop    func()
}

// Dictation owns the single recognition stream of a session.
type Dictation struct {
	recognizer Recognizer
	opts       Options
	handlers   DictationHandlers
	logger     *zap.Logger

	mu        sync.Mutex
	listening bool
	starting  bool
	cancel    context.CancelFunc
	gen       uint64
}

// NewDictation wraps recognizer. A nil recognizer yields a Dictation whose
// Toggle always reports ErrDictationUnsupported.
func NewDictation(recognizer Recognizer, opts Options, handlers DictationHandlers, logger *zap.Logger) *Dictation {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dictation{
		recognizer: recognizer,
		opts:       opts,
		handlers:   handlers,
		logger:     logger,
	}
}

// Supported reports whether a recognizer is available.
func (d *Dictation) Supported() bool {
	return d != nil && d.recognizer != nil
}

// Listening reports whether a stream is active.
func (d *Dictation) Listening() bool {
	if d == nil {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listening || d.starting
}

// Toggle starts a stream when idle and stops it when active. A toggle that
// arrives while a start is still in progress is ignored.
func (d *Dictation) Toggle(ctx context.Context) (bool, error) {
	if !d.Supported() {
		return false, ErrDictationUnsupported
	}

	d.mu.Lock()
	if d.starting {
		d.mu.Unlock()
		return true, nil
	}
	if d.listening {
		d.stopLocked()
		d.mu.Unlock()
		d.logger.Debug("dictation stopped")
		return false, nil
	}

	d.starting = true
	d.gen++
	gen := d.gen
	d.mu.Unlock()

	streamCtx, cancel := context.WithCancel(ctx)
	results, err := d.recognizer.Start(streamCtx, d.opts)

	d.mu.Lock()
	d.starting = false
	if err != nil {
		d.mu.Unlock()
		cancel()
		d.logger.Warn("dictation failed to start", zap.Error(err))
		return false, fmt.Errorf("start recognition: %w", err)
	}
	if gen != d.gen {
		// Stopped while starting.
		d.mu.Unlock()
		cancel()
		return false, nil
	}
	d.listening = true
	d.cancel = cancel
	d.mu.Unlock()

	d.logger.Debug("dictation started", zap.Bool("interim", d.opts.Interim), zap.Bool("continuous", d.opts.Continuous))

	go d.consume(gen, results)

	return true, nil
}

// Stop ends the active stream, if any.
func (d *Dictation) Stop() {
	if d == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Dictation) stopLocked() {
	d.gen++
	d.listening = false
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Dictation) consume(gen uint64, results <-chan Result) {
	for result := range results {
		if !d.current(gen) {
			continue
		}

		if result.Err != nil {
			d.fail(gen, result.Err)
			continue
		}

		if !result.Final {
			continue
		}

		if d.handlers.OnSegment != nil {
			d.handlers.OnSegment(result.Text)
		}
	}

	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.stopLocked()
	d.mu.Unlock()

	if d.handlers.OnStop != nil {
		d.handlers.OnStop()
	}
}

func (d *Dictation) fail(gen uint64, err error) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.stopLocked()
	d.mu.Unlock()

	d.logger.Warn("dictation error", zap.Error(err))

	if d.handlers.OnError != nil {
		d.handlers.OnError(err)
	}
}

func (d *Dictation) current(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return gen == d.gen
}
