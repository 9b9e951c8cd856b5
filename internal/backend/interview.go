package backend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spigell/interview-drill/internal/evaluation"
	"go.uber.org/zap"
)

type questionsResponse struct {
	Questions []any `json:"questions"`
}

// questionItem is an object-shaped question entry.
type questionItem struct {
	Question string
	Text     string
}

type submission struct {
	ResumeID string   `json:"resumeId"`
	Answers  []string `json:"answers"`
}

// Questions retrieves the ordered question list for resumeID. Additional
// metadata in the response is ignored.
func (c *Client) Questions(ctx context.Context, resumeID string) ([]string, error) {
	resumeID = strings.TrimSpace(resumeID)
	if resumeID == "" {
		return nil, errors.New("resume id is required")
	}

	endpoint := c.BaseURL + questionsPath + url.PathEscape(resumeID)

	var response questionsResponse
	if err := c.getJSON(ctx, endpoint, &response); err != nil {
		return nil, fmt.Errorf("get interview questions: %w", err)
	}

	questions := make([]string, 0, len(response.Questions))
	for i, raw := range response.Questions {
		question, err := decodeQuestion(raw)
		if err != nil {
			c.logger.Warn("skip malformed question", zap.Int("position", i), zap.Error(err))
			continue
		}
		questions = append(questions, question)
	}

	c.logger.Debug("got interview questions", zap.String("resume_id", resumeID), zap.Int("count", len(questions)))

	return questions, nil
}

// Submit sends all answers at once and returns the evaluation artifact.
func (c *Client) Submit(ctx context.Context, resumeID string, answers []string) (*evaluation.Artifact, error) {
	var raw map[string]any
	payload := submission{ResumeID: resumeID, Answers: answers}
	if payload.Answers == nil {
		payload.Answers = []string{}
	}

	if err := c.postJSON(ctx, c.BaseURL+submitPath, payload, &raw); err != nil {
		return nil, fmt.Errorf("submit interview: %w", err)
	}

	artifact, err := evaluation.DecodeArtifact(raw)
	if err != nil {
		// Text and well-formed scores are still usable.
		c.logger.Warn("evaluation payload partially decoded", zap.Error(err))
	}

	c.logger.Debug("got evaluation", zap.String("resume_id", resumeID), zap.Int("evaluation_length", len(artifact.Text())))

	return artifact, nil
}

func decodeQuestion(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case map[string]any:
		var item questionItem
		if err := mapstructure.Decode(v, &item); err != nil {
			return "", fmt.Errorf("decode question object: %w", err)
		}
		if item.Question != "" {
			return item.Question, nil
		}
		if item.Text != "" {
			return item.Text, nil
		}
		return "", errors.New("question object has no question or text field")
	default:
		return "", fmt.Errorf("unsupported question type %T", raw)
	}
}
