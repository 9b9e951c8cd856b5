// Package capture merges typed and dictated input into one answer buffer.
package capture

import (
	"errors"
	"strings"
)

// ErrLocked is returned when input arrives while the question is still
// being disclosed.
var ErrLocked = errors.New("input is locked until the question is fully shown")

// segmentSeparator follows every committed dictation segment.
const segmentSeparator = " "

// Buffer is the in-progress answer of the active question.
type Buffer struct {
	text      string
	unlocked  bool
	committed bool
}

// Unlock opens the buffer for input once disclosure has completed.
func (b *Buffer) Unlock() {
	b.unlocked = true
}

// Locked reports whether input is still blocked.
func (b *Buffer) Locked() bool {
	return !b.unlocked
}

// Type replaces the buffer with the full current value of the answer field.
// first is true when this is the first committed input for the question.
func (b *Buffer) Type(text string) (first bool, err error) {
	if !b.unlocked {
		return false, ErrLocked
	}

	b.text = text
	return b.markCommitted(), nil
}

// Dictate appends a finalized transcript segment followed by a separator.
// Blank segments are ignored and do not count as input.
func (b *Buffer) Dictate(segment string) (first bool, err error) {
	if !b.unlocked {
		return false, ErrLocked
	}

	segment = strings.TrimSpace(segment)
	if segment == "" {
		return false, nil
	}

	b.text += segment + segmentSeparator
	return b.markCommitted(), nil
}

// Text returns the current answer.
func (b *Buffer) Text() string {
	return b.text
}

// Reset empties and locks the buffer for the next question.
func (b *Buffer) Reset() {
	b.text = ""
	b.unlocked = false
	b.committed = false
}

func (b *Buffer) markCommitted() bool {
	if b.committed {
		return false
	}
	b.committed = true
	return true
}
