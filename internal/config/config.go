package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig is the HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// AlternateConfig is the backend used when a caller brings their own key.
type AlternateConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	ResponseFormat string `yaml:"response_format"`
}

// ModelConfig selects and configures the default backend.
type ModelConfig struct {
	Provider       string          `yaml:"provider"` // openai, ollama or none
	BaseURL        string          `yaml:"base_url"`
	APIKey         string          `yaml:"api_key"`
	Name           string          `yaml:"name"`
	ResponseFormat string          `yaml:"response_format"`
	MaxTokens      int             `yaml:"max_tokens"`
	Alternate      AlternateConfig `yaml:"alternate"`
}

// OllamaConfig is used when model.provider is ollama.
type OllamaConfig struct {
	Host  string `yaml:"host"`
	Model string `yaml:"model"`
}

// AnalysisConfig tunes the orchestrator.
type AnalysisConfig struct {
	Strategy       string        `yaml:"strategy"` // local, model or auto
	DefaultMode    string        `yaml:"default_mode"`
	MinCodeLength  int           `yaml:"min_code_length"`
	MaxCodeLength  int           `yaml:"max_code_length"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// RateLimitConfig is the per-client limit on the analyze endpoint.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// LoggingConfig defines the logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Config is the top-level configuration struct.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Model     ModelConfig     `yaml:"model"`
	Ollama    OllamaConfig    `yaml:"ollama"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Default returns a config that runs offline with no file at all.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Model: ModelConfig{
			Provider:       "none",
			Name:           "gpt-4o-mini",
			ResponseFormat: "json_schema",
			MaxTokens:      4096,
			Alternate: AlternateConfig{
				BaseURL:        "https://api.groq.com/openai/v1",
				Model:          "gemma-7b-it",
				ResponseFormat: "json_object",
			},
		},
		Ollama: OllamaConfig{Host: "http://localhost:11434", Model: "llama3"},
		Analysis: AnalysisConfig{
			Strategy:       "auto",
			DefaultMode:    "review",
			MinCodeLength:  10,
			MaxCodeLength:  100_000,
			RequestTimeout: 60 * time.Second,
		},
		RateLimit: RateLimitConfig{Enabled: true, RequestsPerSecond: 1, Burst: 5},
		Logging:   LoggingConfig{Level: "info", Format: "text", Output: "stdout"},
	}
}

// Load reads path over Default. ${VAR} references are expanded from the
// environment first so secrets can stay out of the file. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Path is CONFIG_PATH or config.yaml.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Model.Provider) {
	case "openai", "ollama", "none", "":
	default:
		errs = append(errs, fmt.Errorf("model.provider %q: want openai, ollama or none", c.Model.Provider))
	}
	switch strings.ToLower(c.Analysis.Strategy) {
	case "local", "model", "auto", "":
	default:
		errs = append(errs, fmt.Errorf("analysis.strategy %q: want local, model or auto", c.Analysis.Strategy))
	}
	switch strings.ToLower(c.Analysis.DefaultMode) {
	case "review", "fix", "":
	default:
		errs = append(errs, fmt.Errorf("analysis.default_mode %q: want review or fix", c.Analysis.DefaultMode))
	}
	if c.Analysis.MinCodeLength < 0 || (c.Analysis.MaxCodeLength > 0 && c.Analysis.MaxCodeLength < c.Analysis.MinCodeLength) {
		errs = append(errs, fmt.Errorf("analysis code length bounds %d..%d are inconsistent", c.Analysis.MinCodeLength, c.Analysis.MaxCodeLength))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("rate_limit needs positive requests_per_second and burst"))
	}
	return errors.Join(errs...)
}

// ModelEnabled reports whether a default backend is configured.
func (c *Config) ModelEnabled() bool {
	switch strings.ToLower(c.Model.Provider) {
	case "openai":
		return c.Model.APIKey != ""
	case "ollama":
		return true
	}
	return false
}
