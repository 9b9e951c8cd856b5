package cmd

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "interview-drill"
	envPrefix = "INTERVIEW_DRILL"
)

type Config struct {
	ResumeID  string           `mapstructure:"resume-id"`
	LogFile   string           `mapstructure:"log-file"`
	Backend   *BackendConfig   `mapstructure:"backend"`
	Session   *SessionConfig   `mapstructure:"session"`
	Dictation *DictationConfig `mapstructure:"dictation"`
	AI        *AIConfig        `mapstructure:"ai"`
}

type BackendConfig struct {
	Kind      string        `mapstructure:"kind"`
	BaseURL   string        `mapstructure:"base-url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	TokenFile string        `mapstructure:"token-file"`
}

type SessionConfig struct {
	CountdownSeconds   int           `mapstructure:"countdown-seconds"`
	DisclosureInterval time.Duration `mapstructure:"disclosure-interval"`
	TickInterval       time.Duration `mapstructure:"tick-interval"`
	Activation         string        `mapstructure:"activation"`
}

type DictationConfig struct {
	Command  string   `mapstructure:"command"`
	Args     []string `mapstructure:"args"`
	Language string   `mapstructure:"language"`
	Interim  bool     `mapstructure:"interim"`
}

type AIConfig struct {
	ResumeDir     string        `mapstructure:"resume-dir"`
	QuestionCount int           `mapstructure:"question-count"`
	Gemini        *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interview-drill runs timed mock interviews for a résumé in the terminal",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	bindings := map[string]string{
		"backend.token-file":     envPrefix + "_TOKEN_FILE",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("log-file", app+".log")
	viper.SetDefault("backend.kind", "http")
	viper.SetDefault("backend.timeout", "60s")
	viper.SetDefault("session.countdown-seconds", 180)
	viper.SetDefault("session.disclosure-interval", "20ms")
	viper.SetDefault("session.tick-interval", "1s")
	viper.SetDefault("session.activation", "on-first-input")
	viper.SetDefault("dictation.interim", true)
	viper.SetDefault("dictation.language", "en-US")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interview-drill.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for run command now.
	if runCmd.CalledAs() == "" {
		return
	}

	// A missing .env is fine; everything can come from the config file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Flags and env are enough without an implicit config file.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
