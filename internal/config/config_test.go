package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/levelcheck/internal/llm"
)

// clearProviderKeys hides API keys from the environment running the tests.
func clearProviderKeys(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
}

func loadFrom(t *testing.T, configFile string) (Config, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	v, err := New(configFile)
	require.NoError(t, err)
	return Load(v)
}

func TestLoad_Defaults(t *testing.T) {
	clearProviderKeys(t)

	cfg, err := loadFrom(t, "")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Assessment.MinQuestions)
	assert.Equal(t, 10, cfg.Assessment.MaxQuestions)
	assert.Equal(t, 2*time.Hour, cfg.Assessment.SessionTimeout)
	assert.Equal(t, 0.05, cfg.Assessment.VarianceThreshold)
	assert.Equal(t, 3, cfg.Assessment.VarianceWindow)
	assert.True(t, cfg.Assessment.Adaptive)

	assert.Equal(t, 500, cfg.Evaluator.MaxTokens)
	assert.Equal(t, 0.1, cfg.Evaluator.Temperature)
	assert.Equal(t, 50*time.Second, cfg.Evaluator.Timeout)
	assert.False(t, cfg.Evaluator.Structured)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "pretty", cfg.Log.Format)
	assert.Equal(t, llm.ProviderNone, cfg.LLM.Provider)
	assert.Equal(t, "claude-haiku", cfg.LLM.Anthropic.Model)
}

func TestLoad_Env(t *testing.T) {
	clearProviderKeys(t)
	t.Setenv("LEVELCHECK_ASSESSMENT_MAX_QUESTIONS", "8")
	t.Setenv("LEVELCHECK_ASSESSMENT_SESSION_TIMEOUT", "45m")
	t.Setenv("LEVELCHECK_ASSESSMENT_ADAPTIVE", "false")
	t.Setenv("LEVELCHECK_EVALUATOR_STRUCTURED", "true")
	t.Setenv("LEVELCHECK_LLM_PROVIDER", "Anthropic")
	t.Setenv("LEVELCHECK_LLM_ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("LEVELCHECK_DB", "/tmp/levelcheck-test.db")

	cfg, err := loadFrom(t, "")
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Assessment.MaxQuestions)
	assert.Equal(t, 45*time.Minute, cfg.Assessment.SessionTimeout)
	assert.False(t, cfg.Assessment.Adaptive)
	assert.False(t, cfg.Assessment.Policy().Adaptive)
	assert.True(t, cfg.Evaluator.Structured)
	assert.Equal(t, llm.ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "sk-ant-test", cfg.LLM.Anthropic.APIKey)
	assert.Equal(t, "/tmp/levelcheck-test.db", cfg.DatabaseURL)
}

func TestLoad_DiscoversProvider(t *testing.T) {
	clearProviderKeys(t)
	t.Setenv("GEMINI_API_KEY", "gm-test")

	cfg, err := loadFrom(t, "")
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "gm-test", cfg.LLM.Gemini.APIKey)
}

func TestLoad_ExplicitNoneSkipsDiscovery(t *testing.T) {
	clearProviderKeys(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LEVELCHECK_LLM_PROVIDER", "none")

	cfg, err := loadFrom(t, "")
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderNone, cfg.LLM.Provider)
}

func TestLoad_ConfigFile(t *testing.T) {
	clearProviderKeys(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"question_bank: ./bank.yaml",
		"log:",
		"  format: json",
		"assessment:",
		"  min_questions: 3",
		"  max_questions: 6",
		"evaluator:",
		"  timeout: 20s",
	}, "\n")), 0o644))

	cfg, err := loadFrom(t, path)
	require.NoError(t, err)
	assert.Equal(t, "./bank.yaml", cfg.QuestionBankPath)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 3, cfg.Assessment.MinQuestions)
	assert.Equal(t, 6, cfg.Assessment.MaxQuestions)
	assert.Equal(t, 20*time.Second, cfg.Evaluator.Timeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearProviderKeys(t)
	path := filepath.Join(t.TempDir(), "levelcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("assessment:\n  max_questions: 6\n"), 0o644))
	t.Setenv("LEVELCHECK_ASSESSMENT_MAX_QUESTIONS", "7")

	cfg, err := loadFrom(t, path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Assessment.MaxQuestions)
}

func TestNew_MissingExplicitFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearProviderKeys(t)
	base, err := loadFrom(t, "")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"min above max", func(c *Config) { c.Assessment.MinQuestions = 11 }, "max_questions"},
		{"zero min", func(c *Config) { c.Assessment.MinQuestions = 0 }, "min_questions"},
		{"zero timeout", func(c *Config) { c.Assessment.SessionTimeout = 0 }, "session_timeout"},
		{"zero window", func(c *Config) { c.Assessment.VarianceWindow = 0 }, "variance_window"},
		{"zero evaluator timeout", func(c *Config) { c.Evaluator.Timeout = 0 }, "evaluator.timeout"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"missing key", func(c *Config) { c.LLM.Provider = llm.ProviderOpenAI }, "LEVELCHECK_LLM_OPENAI_API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, base.Validate())
}
