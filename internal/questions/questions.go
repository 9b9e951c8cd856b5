// Package questions cleans the question list returned by the backend.
package questions

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// MinLength is the longest question that is still considered trivial.
const MinLength = 10

// ErrNoQuestions is returned when nothing is left to ask.
var ErrNoQuestions = errors.New("no usable interview questions")

// Filter is a single preparation step applied to the question list.
type Filter interface {
	Name() string
	Apply(items []string) ([]string, Step)
}

// Step describes the result of executing a preparation step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// DefaultSteps returns the preparation applied to every fetched list.
func DefaultSteps() []Filter {
	return []Filter{
		NewStripMarkers(),
		NewMinLength(MinLength),
	}
}

// Prepare runs the default steps over raw.
func Prepare(raw []string, logger *zap.Logger) ([]string, error) {
	return Run(DefaultSteps(), raw, logger)
}

// Run executes the supplied steps sequentially. The input slice is not modified.
func Run(steps []Filter, raw []string, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	items := make([]string, len(raw))
	copy(items, raw)

	for _, step := range steps {
		var info Step
		items, info = step.Apply(items)

		logger.Debug("question filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)
	}

	if len(items) == 0 {
		return nil, ErrNoQuestions
	}

	return items, nil
}

var markerPattern = regexp.MustCompile(`(?i)^(Introduction:|Conclusion:)`)

type stripMarkers struct{}

// NewStripMarkers removes leading "Introduction:"/"Conclusion:" markers and
// surrounding whitespace. It never drops items.
func NewStripMarkers() Filter {
	return stripMarkers{}
}

func (stripMarkers) Name() string { return "strip_markers" }

func (stripMarkers) Apply(items []string) ([]string, Step) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = markerPattern.ReplaceAllString(strings.TrimSpace(item), "")
		out = append(out, strings.TrimSpace(item))
	}

	return out, Step{Initial: len(items), Dropped: 0, Left: len(out)}
}

type minLength struct {
	min int
}

// NewMinLength drops questions whose length in characters is at most min.
func NewMinLength(min int) Filter {
	return minLength{min: min}
}

func (f minLength) Name() string { return "min_length" }

func (f minLength) Apply(items []string) ([]string, Step) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if utf8.RuneCountInString(item) <= f.min {
			continue
		}
		out = append(out, item)
	}

	return out, Step{Initial: len(items), Dropped: len(items) - len(out), Left: len(out)}
}
