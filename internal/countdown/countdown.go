// Package countdown implements the per-question answer timer.
package countdown

import (
	"fmt"
	"strings"
)

// DefaultSeconds is the time allowed for one answer.
const DefaultSeconds = 180

// lowTimeRatio marks the point where the remaining time is shown as running out.
const lowTimeRatio = 0.3

// Policy decides when the countdown starts once disclosure has completed.
type Policy int

const (
	// OnFirstInput starts the countdown on the first committed input event.
	OnFirstInput Policy = iota
	// OnDisclosure starts the countdown as soon as the question is fully shown.
	OnDisclosure
)

func (p Policy) String() string {
	switch p {
	case OnDisclosure:
		return "on-disclosure"
	default:
		return "on-first-input"
	}
}

// ParsePolicy converts a configuration value into a Policy.
func ParsePolicy(value string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "on-first-input", "lazy":
		return OnFirstInput, nil
	case "on-disclosure", "auto":
		return OnDisclosure, nil
	default:
		return OnFirstInput, fmt.Errorf("unknown activation policy %q", value)
	}
}

// Countdown holds the timer state of the active question. The caller owns
// the tick source and calls Tick once per second while Active reports true.
type Countdown struct {
	initial   int
	remaining int
	active    bool
	armed     bool
	expired   bool
	policy    Policy
}

// New creates a countdown of the given length. Non-positive values fall back
// to DefaultSeconds.
func New(seconds int, policy Policy) *Countdown {
	if seconds <= 0 {
		seconds = DefaultSeconds
	}

	return &Countdown{
		initial:   seconds,
		remaining: seconds,
		policy:    policy,
	}
}

// Reset reinitializes the countdown for a new question.
func (c *Countdown) Reset() {
	c.remaining = c.initial
	c.active = false
	c.armed = false
	c.expired = false
}

// Arm records that disclosure has completed. Under OnDisclosure the
// countdown starts immediately. It reports whether the countdown started.
func (c *Countdown) Arm() bool {
	c.armed = true
	if c.policy == OnDisclosure {
		return c.Start()
	}
	return false
}

// NoteInput records a committed input event. Under OnFirstInput the first
// one starts the countdown. It reports whether the countdown started.
func (c *Countdown) NoteInput() bool {
	if c.policy != OnFirstInput {
		return false
	}
	return c.Start()
}

// Start activates the countdown. It does nothing before disclosure has
// completed, after expiry, or while already active.
func (c *Countdown) Start() bool {
	if !c.armed || c.expired || c.active {
		return false
	}
	c.active = true
	return true
}

// Stop pauses the countdown without touching the remaining time.
func (c *Countdown) Stop() {
	c.active = false
}

// Tick consumes one second. It reports true exactly once, on the tick that
// reaches zero; the countdown is inactive afterwards.
func (c *Countdown) Tick() bool {
	if !c.active || c.expired {
		return false
	}

	if c.remaining > 0 {
		c.remaining--
	}

	if c.remaining == 0 {
		c.active = false
		c.expired = true
		return true
	}

	return false
}

func (c *Countdown) Remaining() int { return c.remaining }

func (c *Countdown) Initial() int { return c.initial }

func (c *Countdown) Active() bool { return c.active }

func (c *Countdown) Armed() bool { return c.armed }

func (c *Countdown) Expired() bool { return c.expired }

func (c *Countdown) Policy() Policy { return c.policy }

// Low reports whether less than 30% of the initial time is left.
func (c *Countdown) Low() bool {
	return float64(c.remaining) < float64(c.initial)*lowTimeRatio
}

// Format renders seconds as m:ss.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
