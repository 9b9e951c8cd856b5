// Package disclosure reveals a question one character at a time.
package disclosure

import (
	"iter"
	"time"
)

// DefaultInterval is the delay between two revealed characters.
const DefaultInterval = 20 * time.Millisecond

// Frame is one observable state of a disclosure run.
type Frame struct {
	Prefix string
	Typing bool
}

// Disclosure is a single, non-restartable reveal of one question.
// It is not safe for concurrent use; the owner drives it from one goroutine.
type Disclosure struct {
	runes   []rune
	emitted int
	done    bool
}

// New prepares a disclosure run for question. Nothing is revealed until the
// first call to Next.
func New(question string) *Disclosure {
	return &Disclosure{runes: []rune(question)}
}

// Next emits the following frame. The first frame is the empty prefix and
// the last one is the full question with Typing set to false. ok is false
// once the run has completed.
func (d *Disclosure) Next() (Frame, bool) {
	if d.done {
		return d.Current(), false
	}

	frame := Frame{
		Prefix: string(d.runes[:d.emitted]),
		Typing: d.emitted < len(d.runes),
	}

	if d.emitted == len(d.runes) {
		d.done = true
	} else {
		d.emitted++
	}

	return frame, true
}

// Current reports the state an observer sees between ticks. Before the run
// completes Typing is true even for an empty question.
func (d *Disclosure) Current() Frame {
	if d.done {
		return Frame{Prefix: string(d.runes), Typing: false}
	}

	shown := d.emitted - 1
	if shown < 0 {
		shown = 0
	}
	return Frame{Prefix: string(d.runes[:shown]), Typing: true}
}

// Typing reports whether input must still be blocked.
func (d *Disclosure) Typing() bool {
	return !d.done
}

// Done reports whether the full question has been emitted.
func (d *Disclosure) Done() bool {
	return d.done
}

// Frames returns the lazy sequence of growing prefixes of question: len+1
// frames from the empty string to the full text.
func Frames(question string) iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		d := New(question)
		for {
			frame, ok := d.Next()
			if !ok || !yield(frame) {
				return
			}
		}
	}
}
