package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-drill/internal/ai"
	"github.com/spigell/interview-drill/internal/ai/gemini"
	"github.com/spigell/interview-drill/internal/backend"
	"github.com/spigell/interview-drill/internal/capture"
	"github.com/spigell/interview-drill/internal/console"
	"github.com/spigell/interview-drill/internal/countdown"
	"github.com/spigell/interview-drill/internal/loading"
	"github.com/spigell/interview-drill/internal/logger"
	"github.com/spigell/interview-drill/internal/secrets"
	"github.com/spigell/interview-drill/internal/session"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"

	backendHTTP   = "http"
	backendGemini = "gemini"
)

var errExit = errors.New("exit requested")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a mock interview for the configured résumé",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("resume-id", "r", "", "résumé identifier to interview for")
	runCmd.Flags().BoolP("auto-approve", "y", false, "start without asking for confirmation")
	runCmd.Flags().Bool("no-color", false, "disable colors in the terminal UI")
	runCmd.Flags().String("log-file", "", "file for logs while the terminal UI is active")

	viper.BindPFlag("resume-id", runCmd.Flags().Lookup("resume-id"))
	viper.BindPFlag("log-file", runCmd.Flags().Lookup("log-file"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Terminal logger until the UI takes over the screen.
	bootstrap, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		bootstrap.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		bootstrap.Fatal("config is required")
	}

	logger, err := logger.ToFile(config.LogFile, viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		bootstrap.Fatal("creating a file logger", zap.String("log_file", config.LogFile), zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	bootstrap.Info("writing logs to file", zap.String("log_file", config.LogFile))

	logger.Info("starting the interview-drill", zap.String("version", version))
	logger.Debug("starting with config", zap.Any("config", config))

	if strings.TrimSpace(config.ResumeID) == "" {
		logger.Fatal("resume id is required", zap.String("hint", "set resume-id in the config file or pass --resume-id"))
	}

	sessionCfg, err := buildSessionConfig(config)
	if err != nil {
		logger.Fatal("invalid session config", zap.Error(err))
	}

	questionBackend, err := newBackend(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the interview backend", zap.Error(err))
	}

	autoApprove, _ := cmd.Flags().GetBool("auto-approve")
	noColor, _ := cmd.Flags().GetBool("no-color")

	if !autoApprove {
		if err := confirm(fmt.Sprintf("Start the interview for résumé %s (%s per question)?",
			config.ResumeID, countdown.Format(sessionCfg.CountdownSeconds))); err != nil {
			logger.Info("exiting", zap.String("reason", err.Error()))
			return
		}
	}

	for {
		result, snap, err := practice(ctx, sessionCfg, questionBackend, config.Dictation, noColor, logger)
		if err != nil {
			logger.Fatal("running the interview", zap.Error(err))
		}

		if result != nil {
			fmt.Println(console.RenderSummary(result.Summary, noColor))
			logger.Info("interview completed", zap.Int("overall_score", result.Summary.OverallScore))
			return
		}

		if ctx.Err() != nil || snap.Err == nil {
			logger.Info("exiting", zap.String("reason", "interview interrupted"), zap.Stringer("state", snap.State))
			return
		}

		fmt.Printf("The interview stopped with an error: %s\n", snap.Err)
		if err := confirm("Start over?"); err != nil {
			logger.Info("exiting", zap.String("reason", err.Error()), zap.Error(snap.Err))
			return
		}
	}
}

// practice runs one session inside the terminal UI. The result is nil when
// the user quits before the evaluation arrives.
func practice(ctx context.Context, cfg session.Config, b session.Backend, dictation *DictationConfig, noColor bool, logger *zap.Logger) (*session.Result, session.Snapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dashboard := &console.Dashboard{}
	tracker := loading.NewTracker(func(active bool) {
		logger.Debug("loading indicator changed", zap.Bool("active", active))
	}, logger)

	var recognizer capture.Recognizer
	if dictation != nil {
		recognizer = capture.NewCommandRecognizer(dictation.Command, dictation.Args)
	}

	s, err := session.New(cfg, session.Deps{
		Backend:    b,
		Dashboard:  dashboard,
		Recognizer: recognizer,
		Loading:    tracker,
		Logger:     logger,
	})
	if err != nil {
		return nil, session.Snapshot{}, err
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	model := console.NewModel(s, s.Updates(), s.Snapshot(), console.Options{NoColor: noColor})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return nil, session.Snapshot{}, fmt.Errorf("terminal ui: %w", err)
	}

	snap := s.Snapshot()
	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("session stopped with error", zap.Error(err))
	}

	if result, ok := dashboard.Result(); ok {
		return &result, snap, nil
	}
	return nil, snap, nil
}

func buildSessionConfig(config *Config) (session.Config, error) {
	cfg := session.Config{ResumeID: config.ResumeID}

	if config.Session != nil {
		policy, err := countdown.ParsePolicy(config.Session.Activation)
		if err != nil {
			return cfg, err
		}

		cfg.CountdownSeconds = config.Session.CountdownSeconds
		cfg.DisclosureInterval = config.Session.DisclosureInterval
		cfg.TickInterval = config.Session.TickInterval
		cfg.Activation = policy
	}

	if cfg.CountdownSeconds <= 0 {
		cfg.CountdownSeconds = countdown.DefaultSeconds
	}

	if config.Dictation != nil {
		cfg.Dictation = capture.Options{
			Continuous: true,
			Interim:    config.Dictation.Interim,
			Language:   config.Dictation.Language,
		}
	}

	return cfg, nil
}

func newBackend(ctx context.Context, config *Config, logger *zap.Logger) (session.Backend, error) {
	bc := config.Backend
	if bc == nil {
		bc = &BackendConfig{Kind: backendHTTP}
	}

	switch kind := strings.ToLower(strings.TrimSpace(bc.Kind)); kind {
	case "", backendHTTP:
		return newHTTPBackend(bc, logger)
	case backendGemini:
		return newGeminiBackend(ctx, config.AI, logger)
	default:
		return nil, fmt.Errorf("unsupported backend kind: %s", bc.Kind)
	}
}

func newHTTPBackend(bc *BackendConfig, logger *zap.Logger) (session.Backend, error) {
	if strings.TrimSpace(bc.BaseURL) == "" {
		return nil, errors.New("backend.base-url is required for the http backend")
	}

	token, err := resolveToken(bc)
	if err != nil {
		return nil, err
	}
	if token == "" {
		logger.Debug("no backend token configured, sending anonymous requests")
	}

	return backend.New(backend.Config{
		BaseURL: bc.BaseURL,
		Timeout: bc.Timeout,
		Token:   token,
	}, logger.Named("backend")), nil
}

// resolveToken loads the bearer token. The token is optional unless a token
// file is configured explicitly.
func resolveToken(bc *BackendConfig) (string, error) {
	tokenEnv := envPrefix + "_TOKEN"
	if strings.TrimSpace(bc.TokenFile) == "" {
		if value, ok := os.LookupEnv(tokenEnv); !ok || strings.TrimSpace(value) == "" {
			return "", nil
		}
	}

	token, err := secrets.Load(secrets.Source{
		Name: "backend token",
		File: bc.TokenFile,
		Env:  tokenEnv,
	})
	if err != nil {
		return "", fmt.Errorf("loading backend token: %w", err)
	}
	return token, nil
}

func newGeminiBackend(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (session.Backend, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, errors.New("ai.gemini section is required for the gemini backend")
	}
	if strings.TrimSpace(cfg.ResumeDir) == "" {
		return nil, errors.New("ai.resume-dir is required for the gemini backend")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, gemini.Config{
		APIKey:     apiKey,
		Model:      cfg.Gemini.Model,
		MaxRetries: cfg.Gemini.MaxRetries,
	}, logger.Named("gemini"))
	if err != nil {
		return nil, err
	}

	return ai.NewInterviewer(generator, ai.DirResumes{Dir: cfg.ResumeDir}, ai.Config{
		QuestionCount: cfg.QuestionCount,
		MaxLogLength:  cfg.Gemini.MaxLogLength,
	}, logger.Named("interviewer").With(zap.String("model", generator.Model())))
}

func confirm(label string) error {
	prompt := promptui.Select{
		Label: label,
		Items: []string{PromptYes, PromptNo},
	}

	_, selected, err := prompt.Run()
	if err != nil {
		return err
	}
	if selected != PromptYes {
		return errExit
	}
	return nil
}
