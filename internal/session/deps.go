package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/interview-drill/internal/capture"
	"github.com/spigell/interview-drill/internal/countdown"
	"github.com/spigell/interview-drill/internal/disclosure"
	"github.com/spigell/interview-drill/internal/evaluation"
	"github.com/spigell/interview-drill/internal/loading"
	"go.uber.org/zap"
)

// Backend is the question-retrieval and submission collaborator.
type Backend interface {
	Questions(ctx context.Context, resumeID string) ([]string, error)
	Submit(ctx context.Context, resumeID string, answers []string) (*evaluation.Artifact, error)
}

// Result is handed to the dashboard once the evaluation has been reduced.
type Result struct {
	SessionID string
	ResumeID  string
	Questions []string
	Answers   []string
	Summary   evaluation.Summary
}

// Dashboard renders the final result.
type Dashboard interface {
	Show(ctx context.Context, result Result) error
}

// Config holds the behaviour knobs of a session.
type Config struct {
	ResumeID           string
	CountdownSeconds   int
	DisclosureInterval time.Duration
	TickInterval       time.Duration
	Activation         countdown.Policy
	Dictation          capture.Options
}

// Deps aggregates collaborators used by a session.
type Deps struct {
	Backend    Backend
	Dashboard  Dashboard
	Recognizer capture.Recognizer
	Loading    loading.Indicator
	Clock      Clock
	Logger     *zap.Logger
}

func (c *Config) normalize() error {
	c.ResumeID = strings.TrimSpace(c.ResumeID)
	if c.ResumeID == "" {
		return errors.New("resume id is required")
	}

	if c.CountdownSeconds <= 0 {
		c.CountdownSeconds = countdown.DefaultSeconds
	}
	if c.DisclosureInterval <= 0 {
		c.DisclosureInterval = disclosure.DefaultInterval
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.Activation != countdown.OnFirstInput && c.Activation != countdown.OnDisclosure {
		return fmt.Errorf("unsupported activation policy %d", c.Activation)
	}

	return nil
}

func (d *Deps) normalize() error {
	if d.Backend == nil {
		return errors.New("backend is required")
	}
	if d.Loading == nil {
		d.Loading = loading.Nop()
	}
	if d.Clock == nil {
		d.Clock = realClock{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return nil
}
