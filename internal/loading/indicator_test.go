package loading

import (
	"errors"
	"testing"
)

func TestTrackerScopes(t *testing.T) {
	var changes []bool
	tracker := NewTracker(func(active bool) { changes = append(changes, active) }, nil)

	releaseFetch := tracker.Acquire("fetch_questions")
	releaseSubmit := tracker.Acquire("submit")

	if !tracker.Active() {
		t.Fatalf("expected active tracker")
	}

	if ops := tracker.Operations(); ops["fetch_questions"] != 1 || ops["submit"] != 1 {
		t.Fatalf("unexpected operations: %v", ops)
	}

	releaseFetch()
	releaseFetch()
	if !tracker.Active() {
		t.Fatalf("double release must not clear another acquisition")
	}

	releaseSubmit()
	if tracker.Active() {
		t.Fatalf("expected idle tracker")
	}

	if len(changes) != 2 || !changes[0] || changes[1] {
		t.Fatalf("unexpected change notifications: %v", changes)
	}
}

func TestTrackerReleasedOnFailurePath(t *testing.T) {
	tracker := NewTracker(nil, nil)

	call := func() (err error) {
		release := tracker.Acquire("submit")
		defer release()
		return errBoom
	}

	if err := call(); !errors.Is(err, errBoom) {
		t.Fatalf("unexpected error: %v", err)
	}

	if tracker.Active() {
		t.Fatalf("expected indicator to be cleared after a failed call")
	}
}

var errBoom = errors.New("boom")

func TestNop(t *testing.T) {
	Nop().Acquire("anything")()
}
