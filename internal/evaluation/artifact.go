package evaluation

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Artifact is the evaluation payload returned by the submission backend:
// free text plus optional pre-structured scores.
type Artifact struct {
	FullEvaluation     string `mapstructure:"fullEvaluation" json:"fullEvaluation"`
	Evaluation         string `mapstructure:"evaluation" json:"evaluation,omitempty"`
	OverallScore       *int   `mapstructure:"overallScore" json:"overallScore,omitempty"`
	TechnicalScore     *int   `mapstructure:"technicalScore" json:"technicalScore,omitempty"`
	CommunicationScore *int   `mapstructure:"communicationScore" json:"communicationScore,omitempty"`
	CulturalFitScore   *int   `mapstructure:"culturalFitScore" json:"culturalFitScore,omitempty"`
}

// Text returns the evaluation text, preferring fullEvaluation.
func (a *Artifact) Text() string {
	if a == nil {
		return ""
	}
	if strings.TrimSpace(a.FullEvaluation) != "" {
		return a.FullEvaluation
	}
	return a.Evaluation
}

// DecodeArtifact reads a loosely typed backend payload. Numbers may arrive as
// JSON numbers or numeric strings. Fields that cannot be decoded are left
// empty and reported in the returned error while the rest is still usable.
func DecodeArtifact(raw map[string]any) (*Artifact, error) {
	artifact := &Artifact{}
	if raw == nil {
		return artifact, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           artifact,
	})
	if err != nil {
		return artifact, fmt.Errorf("create artifact decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return artifact, fmt.Errorf("decode evaluation artifact: %w", err)
	}

	return artifact, nil
}

// Summarize reduces the artifact text. Structured scores only fill in the
// values the text did not mention; out-of-range values are ignored.
func Summarize(a *Artifact) Summary {
	text := a.Text()
	summary := Reduce(text)
	if a == nil {
		return summary
	}

	if _, found := overallScore(text); !found {
		summary.OverallScore = structured(a.OverallScore, summary.OverallScore)
	}
	if _, found := categoryScore(text, CategoryTechnical); !found {
		summary.TechnicalScore = structured(a.TechnicalScore, summary.TechnicalScore)
	}
	if _, found := categoryScore(text, CategoryCommunication); !found {
		summary.CommunicationScore = structured(a.CommunicationScore, summary.CommunicationScore)
	}
	if _, found := categoryScore(text, CategoryCulturalFit); !found {
		summary.CulturalFitScore = structured(a.CulturalFitScore, summary.CulturalFitScore)
	}

	return summary
}

func structured(value *int, fallback int) int {
	if value == nil || *value < 0 || *value > maxScore {
		return fallback
	}
	return *value
}
