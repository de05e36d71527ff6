// Package config loads the service configuration from an optional YAML file,
// a .env file and the process environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderLocal  = "local"
)

// Config is the complete service configuration.
type Config struct {
	Addr         string        `yaml:"addr"`
	Env          string        `yaml:"env"`
	Provider     string        `yaml:"provider"`
	GeminiAPIKey string        `yaml:"gemini_api_key"`
	GeminiModel  string        `yaml:"gemini_model"`
	LocalLLM     LocalLLM      `yaml:"local_llm"`
	DatabaseURL  string        `yaml:"database_url"`
	AllowOrigins []string      `yaml:"allow_origins"`
	CallTimeout  time.Duration `yaml:"call_timeout"`
	AzureSpeech  AzureSpeech   `yaml:"azure_speech"`
}

// LocalLLM points at an OpenAI-compatible server.
type LocalLLM struct {
	URL   string `yaml:"url"`
	Model string `yaml:"model"`
	Token string `yaml:"token"`
}

// AzureSpeech holds the text-to-speech credentials. Narration falls back to
// browser speech when Key is empty.
type AzureSpeech struct {
	Key    string `yaml:"key"`
	Region string `yaml:"region"`
	Voice  string `yaml:"voice"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr:         ":8080",
		Env:          "development",
		Provider:     ProviderGemini,
		AllowOrigins: []string{"*"},
		CallTimeout:  45 * time.Second,
	}
}

// Load builds the configuration. An empty path skips the YAML file. A
// missing .env file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	overrides := map[string]*string{
		"ADDR":                &cfg.Addr,
		"ENV":                 &cfg.Env,
		"LLM_PROVIDER":        &cfg.Provider,
		"GEMINI_API_KEY":      &cfg.GeminiAPIKey,
		"GEMINI_MODEL":        &cfg.GeminiModel,
		"LOCAL_LLM_URL":       &cfg.LocalLLM.URL,
		"LOCAL_LLM_MODEL":     &cfg.LocalLLM.Model,
		"LOCAL_LLM_TOKEN":     &cfg.LocalLLM.Token,
		"DATABASE_URL":        &cfg.DatabaseURL,
		"AZURE_SPEECH_KEY":    &cfg.AzureSpeech.Key,
		"AZURE_SPEECH_REGION": &cfg.AzureSpeech.Region,
		"AZURE_SPEECH_VOICE":  &cfg.AzureSpeech.Voice,
	}
	for name, field := range overrides {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*field = v
		}
	}

	if v := os.Getenv("CALL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing CALL_TIMEOUT: %w", err)
		}
		cfg.CallTimeout = d
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderLocal:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("call_timeout must be positive, got %s", c.CallTimeout)
	}
	if c.AzureSpeech.Key != "" && c.AzureSpeech.Region == "" {
		return errors.New("AZURE_SPEECH_REGION is required when AZURE_SPEECH_KEY is set")
	}
	return nil
}
