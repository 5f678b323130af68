// Package config loads the worker's process-wide settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// FailurePolicy controls what a translation failure does to the batch.
type FailurePolicy string

const (
	// FailFast aborts the whole batch on the first failed item. Nothing is written.
	FailFast FailurePolicy = "fail-fast"
	// Partial skips failed items and writes the rest.
	Partial FailurePolicy = "partial"
)

// Supported translation providers.
const (
	ProviderAWS    = "aws"
	ProviderOpenAI = "openai"
	ProviderLambda = "lambda"
)

// ErrMissingOutputBucket is returned when OUTPUT_BUCKET is unset or empty.
var ErrMissingOutputBucket = errors.New("OUTPUT_BUCKET environment variable is not set")

type Config struct {
	// OutputBucket may be empty after Load; it is checked per invocation
	// by ResolveOutputBucket.
	OutputBucket string

	Translation TranslationConfig
	OpenAI      OpenAIConfig

	MetricsNamespace string
	LogLevel         string
	LogFormat        string
}

type TranslationConfig struct {
	Provider       string
	Concurrency    int
	WaveTokens     int
	Breaker        bool
	FailurePolicy  FailurePolicy
	FunctionPrefix string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("translation_provider", ProviderAWS)
	v.SetDefault("translation_concurrency", 1)
	v.SetDefault("translation_wave_tokens", 3000)
	v.SetDefault("translation_breaker", false)
	v.SetDefault("failure_policy", string(FailFast))
	v.SetDefault("translator_function_prefix", "pricofy-translator")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("metrics_namespace", "DocTranslation")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	cfg := &Config{
		OutputBucket: strings.TrimSpace(v.GetString("output_bucket")),
		Translation: TranslationConfig{
			Provider:       strings.ToLower(v.GetString("translation_provider")),
			Concurrency:    v.GetInt("translation_concurrency"),
			WaveTokens:     v.GetInt("translation_wave_tokens"),
			Breaker:        v.GetBool("translation_breaker"),
			FailurePolicy:  FailurePolicy(strings.ToLower(v.GetString("failure_policy"))),
			FunctionPrefix: v.GetString("translator_function_prefix"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  v.GetString("openai_api_key"),
			Model:   v.GetString("openai_model"),
			BaseURL: v.GetString("openai_base_url"),
		},
		MetricsNamespace: v.GetString("metrics_namespace"),
		LogLevel:         strings.ToLower(v.GetString("log_level")),
		LogFormat:        strings.ToLower(v.GetString("log_format")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolveOutputBucket returns the output bucket or ErrMissingOutputBucket.
func (c *Config) ResolveOutputBucket() (string, error) {
	if c == nil || c.OutputBucket == "" {
		return "", ErrMissingOutputBucket
	}
	return c.OutputBucket, nil
}

func (c *Config) validate() error {
	switch c.Translation.Provider {
	case ProviderAWS, ProviderOpenAI, ProviderLambda:
	default:
		return fmt.Errorf("unknown TRANSLATION_PROVIDER %q", c.Translation.Provider)
	}

	switch c.Translation.FailurePolicy {
	case FailFast, Partial:
	default:
		return fmt.Errorf("unknown FAILURE_POLICY %q", c.Translation.FailurePolicy)
	}

	if c.Translation.Concurrency < 1 {
		return fmt.Errorf("TRANSLATION_CONCURRENCY must be at least 1, got %d", c.Translation.Concurrency)
	}
	if c.Translation.WaveTokens < 1 {
		return fmt.Errorf("TRANSLATION_WAVE_TOKENS must be at least 1, got %d", c.Translation.WaveTokens)
	}

	if c.Translation.Provider == ProviderOpenAI && c.OpenAI.APIKey == "" {
		return errors.New("OPENAI_API_KEY is required when TRANSLATION_PROVIDER=openai")
	}
	return nil
}
