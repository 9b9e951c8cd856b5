// Package backend talks to the interview service over HTTP: it retrieves the
// questions generated for a résumé and submits the collected answers.
package backend

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	userAgent      = "spigell/interview-drill"
	defaultTimeout = 60 * time.Second

	questionsPath = "/api/resume/interview-questions/"
	submitPath    = "/api/resume/submit-full-interview"
)

// Config describes how to reach the interview service.
type Config struct {
	BaseURL string        `mapstructure:"base-url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// Token is sent as a bearer token when set.
	Token string `mapstructure:"-"`
}

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string
}

func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		token:  strings.TrimSpace(cfg.Token),
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		UserAgent: userAgent,
		BaseURL:   strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
	}
}
