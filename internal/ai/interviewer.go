// Package ai generates interview questions and evaluations with a language
// model instead of the remote interview service.
package ai

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/spigell/interview-drill/internal/evaluation"
	"github.com/spigell/interview-drill/internal/questions"
	"github.com/spigell/interview-drill/internal/utils"
	"go.uber.org/zap"
)

const (
	defaultQuestionCount = 6
	defaultMaxLogLength  = 200
)

//go:embed prompts/questions.md
var questionsPrompt string

//go:embed prompts/evaluation.md
var evaluationPrompt string

// Generator produces a text reply for a system instruction and a user message.
type Generator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

// Config tunes the interviewer.
type Config struct {
	QuestionCount int `mapstructure:"question-count"`
	MaxLogLength  int `mapstructure:"max-log-length"`
}

// Interviewer asks a Generator for questions and for the final evaluation.
type Interviewer struct {
	generator Generator
	resumes   ResumeSource
	cfg       Config
	logger    *zap.Logger

	mu        sync.Mutex
	questions map[string][]string
}

func NewInterviewer(generator Generator, resumes ResumeSource, cfg Config, logger *zap.Logger) (*Interviewer, error) {
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	if resumes == nil {
		return nil, errors.New("resume source is required")
	}
	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = defaultQuestionCount
	}
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Interviewer{
		generator: generator,
		resumes:   resumes,
		cfg:       cfg,
		logger:    logger,
		questions: make(map[string][]string),
	}, nil
}

// Questions generates questions for the résumé. They are remembered so the
// evaluation can pair them with the answers.
func (i *Interviewer) Questions(ctx context.Context, resumeID string) ([]string, error) {
	resume, err := i.resumes.Resume(ctx, resumeID)
	if err != nil {
		return nil, err
	}

	system := strings.ReplaceAll(questionsPrompt, "{{COUNT}}", strconv.Itoa(i.cfg.QuestionCount))

	i.logger.Debug("generate questions request",
		zap.String("resume_id", resumeID),
		zap.Int("resume_length", utf8.RuneCountInString(resume)),
	)

	raw, err := i.generator.GenerateContent(ctx, system, resume)
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	i.logger.Debug("generate questions response",
		zap.String("resume_id", resumeID),
		zap.String("response_preview", utils.TruncateForLog(raw, i.cfg.MaxLogLength)),
	)

	parsed, err := parseQuestions(raw)
	if err != nil {
		return nil, err
	}

	// Submit pairs answers by index, so it must see the list the session asks.
	asked, err := questions.Prepare(parsed, i.logger)
	if err != nil {
		return nil, err
	}

	i.mu.Lock()
	i.questions[resumeID] = asked
	i.mu.Unlock()

	return asked, nil
}

// Submit asks for an evaluation of the answers.
func (i *Interviewer) Submit(ctx context.Context, resumeID string, answers []string) (*evaluation.Artifact, error) {
	resume, err := i.resumes.Resume(ctx, resumeID)
	if err != nil {
		return nil, err
	}

	i.mu.Lock()
	asked := i.questions[resumeID]
	i.mu.Unlock()

	message := buildTranscript(resume, asked, answers)

	i.logger.Debug("generate evaluation request",
		zap.String("resume_id", resumeID),
		zap.Int("answers", len(answers)),
		zap.Int("message_length", utf8.RuneCountInString(message)),
	)

	text, err := i.generator.GenerateContent(ctx, evaluationPrompt, message)
	if err != nil {
		return nil, fmt.Errorf("generate evaluation: %w", err)
	}

	i.logger.Debug("generate evaluation response",
		zap.String("resume_id", resumeID),
		zap.String("response_preview", utils.TruncateForLog(text, i.cfg.MaxLogLength)),
	)

	return &evaluation.Artifact{FullEvaluation: text}, nil
}

func buildTranscript(resume string, questions, answers []string) string {
	var b strings.Builder
	b.WriteString("Résumé:\n")
	b.WriteString(strings.TrimSpace(resume))
	b.WriteString("\n\nInterview:\n")

	for n, answer := range answers {
		question := fmt.Sprintf("Question %d", n+1)
		if n < len(questions) {
			question = questions[n]
		}

		answer = strings.TrimSpace(answer)
		if answer == "" {
			answer = "(no answer)"
		}

		fmt.Fprintf(&b, "\nQ%d: %s\nA%d: %s\n", n+1, question, n+1, answer)
	}

	return b.String()
}

func parseQuestions(raw string) ([]string, error) {
	cleaned := extractJSON(raw)

	var items []string
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		var wrapped struct {
			Questions []string `json:"questions"`
		}
		if err2 := json.Unmarshal([]byte(cleaned), &wrapped); err2 != nil || len(wrapped.Questions) == 0 {
			return nil, fmt.Errorf("parse questions response: %w", err)
		}
		items = wrapped.Questions
	}

	return items, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
