// Package config loads levelcheck settings from flags, LEVELCHECK_*
// environment variables, an optional levelcheck.yaml file and defaults, in
// that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/abhisek/levelcheck/internal/estimator"
	"github.com/abhisek/levelcheck/internal/evaluator"
	"github.com/abhisek/levelcheck/internal/llm"
	"github.com/abhisek/levelcheck/internal/session"
)

// EnvPrefix prefixes every environment variable, e.g. LEVELCHECK_DB or
// LEVELCHECK_ASSESSMENT_MAX_QUESTIONS.
const EnvPrefix = "LEVELCHECK"

// Config is the full application configuration.
type Config struct {
	// DatabaseURL is a SQLite path or a postgres:// URL. Empty means the
	// default per-user SQLite file.
	DatabaseURL string `mapstructure:"db"`

	// RedisURL enables the distributed learner lock when set.
	RedisURL string `mapstructure:"redis_url"`

	// QuestionBankPath replaces the built-in question catalog with a YAML file.
	QuestionBankPath string `mapstructure:"question_bank"`

	Log        LogConfig        `mapstructure:"log"`
	LLM        llm.Config       `mapstructure:"llm"`
	Assessment AssessmentConfig `mapstructure:"assessment"`
	Evaluator  evaluator.Config `mapstructure:"evaluator"`
}

// LogConfig controls logger output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "pretty" or "json"
}

// AssessmentConfig holds the stopping rule and session lifetime.
type AssessmentConfig struct {
	MinQuestions      int           `mapstructure:"min_questions"`
	MaxQuestions      int           `mapstructure:"max_questions"`
	SessionTimeout    time.Duration `mapstructure:"session_timeout"`
	VarianceThreshold float64       `mapstructure:"variance_threshold"`
	VarianceWindow    int           `mapstructure:"variance_window"`
	Adaptive          bool          `mapstructure:"adaptive"`
}

// Policy converts the settings into an estimator stopping rule.
func (a AssessmentConfig) Policy() estimator.Policy {
	return estimator.Policy{
		MinQuestions:      a.MinQuestions,
		MaxQuestions:      a.MaxQuestions,
		VarianceThreshold: a.VarianceThreshold,
		VarianceWindow:    a.VarianceWindow,
		Adaptive:          a.Adaptive,
	}
}

// SetDefaults registers every key with its default. Keys must be known to
// viper for environment variables to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	policy := estimator.DefaultPolicy()
	eval := evaluator.DefaultConfig()
	models := llm.DefaultConfig()

	v.SetDefault("db", "")
	v.SetDefault("redis_url", "")
	v.SetDefault("question_bank", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "pretty")

	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", models.Anthropic.Model)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", models.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", models.Gemini.Model)
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.openrouter.model", models.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", "")

	v.SetDefault("assessment.min_questions", policy.MinQuestions)
	v.SetDefault("assessment.max_questions", policy.MaxQuestions)
	v.SetDefault("assessment.session_timeout", session.DefaultTimeout)
	v.SetDefault("assessment.variance_threshold", policy.VarianceThreshold)
	v.SetDefault("assessment.variance_window", policy.VarianceWindow)
	v.SetDefault("assessment.adaptive", policy.Adaptive)

	v.SetDefault("evaluator.max_tokens", eval.MaxTokens)
	v.SetDefault("evaluator.temperature", eval.Temperature)
	v.SetDefault("evaluator.timeout", eval.Timeout)
	v.SetDefault("evaluator.structured", eval.Structured)
}

// New returns a viper instance wired for environment variables and the
// config file. An empty configFile searches the working directory and
// $HOME/.config/levelcheck for levelcheck.yaml.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("levelcheck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/levelcheck")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load decodes v into a Config. With no LLM provider configured, API keys
// in the standard OPENAI/ANTHROPIC/GEMINI/OPENROUTER variables select one;
// failing that, scoring runs on the fallback alone.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.Provider == "" {
		if found, ok := llm.DiscoverConfig(cfg.LLM); ok {
			cfg.LLM = found
		} else {
			cfg.LLM.Provider = llm.ProviderNone
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks internal consistency.
func (c Config) Validate() error {
	a := c.Assessment
	switch {
	case a.MinQuestions < 1:
		return fmt.Errorf("assessment.min_questions must be at least 1, got %d", a.MinQuestions)
	case a.MaxQuestions < a.MinQuestions:
		return fmt.Errorf("assessment.max_questions (%d) must not be less than assessment.min_questions (%d)", a.MaxQuestions, a.MinQuestions)
	case a.SessionTimeout <= 0:
		return fmt.Errorf("assessment.session_timeout must be positive, got %s", a.SessionTimeout)
	case a.VarianceThreshold < 0:
		return fmt.Errorf("assessment.variance_threshold must not be negative, got %v", a.VarianceThreshold)
	case a.VarianceWindow < 1:
		return fmt.Errorf("assessment.variance_window must be at least 1, got %d", a.VarianceWindow)
	}

	if c.Evaluator.Timeout <= 0 {
		return fmt.Errorf("evaluator.timeout must be positive, got %s", c.Evaluator.Timeout)
	}
	if c.Evaluator.MaxTokens <= 0 {
		return fmt.Errorf("evaluator.max_tokens must be positive, got %d", c.Evaluator.MaxTokens)
	}

	switch c.Log.Format {
	case "pretty", "json":
	default:
		return fmt.Errorf("log.format must be \"pretty\" or \"json\", got %q", c.Log.Format)
	}

	return c.LLM.Validate()
}
