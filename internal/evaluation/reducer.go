// Package evaluation turns the free-text interview evaluation into a score summary.
package evaluation

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// DefaultScore is used for every score the text does not mention.
	DefaultScore = 50
	// FallbackNote is used when no narrative line survives filtering.
	FallbackNote = "Solid performance with room for growth."

	maxScore  = 100
	noteLines = 3
)

// Category names as they appear in the evaluation text.
const (
	CategoryTechnical     = "Technical Skills"
	CategoryCommunication = "Communication Skills"
	CategoryCulturalFit   = "Cultural Fit"
)

// Summary is the structured result handed to the dashboard.
type Summary struct {
	OverallScore       int    `json:"overallScore"`
	TechnicalScore     int    `json:"technicalScore"`
	CommunicationScore int    `json:"communicationScore"`
	CulturalFitScore   int    `json:"culturalFitScore"`
	PerformanceNote    string `json:"performanceNote"`
	FullEvaluation     string `json:"fullEvaluation"`
}

var (
	overallPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Overall Performance Score:\s*(\d+)`),
		regexp.MustCompile(`(?i)Overall\s*Score:\s*(\d+)`),
		regexp.MustCompile(`(?i)Score:\s*(\d+)`),
	}

	categoryPatterns = map[string]*regexp.Regexp{
		CategoryTechnical:     categoryPattern(CategoryTechnical),
		CategoryCommunication: categoryPattern(CategoryCommunication),
		CategoryCulturalFit:   categoryPattern(CategoryCulturalFit),
	}

	scoreLine = regexp.MustCompile(`(?i)Score|Technical|Communication|Cultural|Strengths|Improvement`)
)

func categoryPattern(category string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(category) + `:\s*(\d+)`)
}

// Reduce derives a Summary from raw evaluation text. It never fails:
// anything it cannot find falls back to the documented defaults.
func Reduce(text string) Summary {
	return Summary{
		OverallScore:       OverallScore(text),
		TechnicalScore:     CategoryScore(text, CategoryTechnical),
		CommunicationScore: CategoryScore(text, CategoryCommunication),
		CulturalFitScore:   CategoryScore(text, CategoryCulturalFit),
		PerformanceNote:    PerformanceNote(text),
		FullEvaluation:     text,
	}
}

// OverallScore returns the first score found by the overall patterns, in order.
func OverallScore(text string) int {
	score, _ := overallScore(text)
	return score
}

func overallScore(text string) (int, bool) {
	for _, pattern := range overallPatterns {
		if score, ok := extract(pattern, text); ok {
			return score, true
		}
	}
	return DefaultScore, false
}

// CategoryScore returns the "<category>: N" score, or DefaultScore.
func CategoryScore(text, category string) int {
	score, _ := categoryScore(text, category)
	return score
}

func categoryScore(text, category string) (int, bool) {
	pattern, ok := categoryPatterns[category]
	if !ok {
		pattern = categoryPattern(category)
	}

	if score, ok := extract(pattern, text); ok {
		return score, true
	}
	return DefaultScore, false
}

// PerformanceNote joins the first three lines of the text that do not mention
// scores or review headings. Blank lines count toward the three.
func PerformanceNote(text string) string {
	kept := make([]string, 0, noteLines)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if scoreLine.MatchString(line) {
			continue
		}

		kept = append(kept, line)
		if len(kept) == noteLines {
			break
		}
	}

	note := strings.TrimSpace(strings.Join(kept, " "))
	if note == "" {
		return FallbackNote
	}
	return note
}

// extract reads the first capturing group as a base-10 score in [0, 100].
func extract(pattern *regexp.Regexp, text string) (int, bool) {
	match := pattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return 0, false
	}

	value, err := strconv.Atoi(match[1])
	if err != nil || value < 0 || value > maxScore {
		return 0, false
	}

	return value, true
}
