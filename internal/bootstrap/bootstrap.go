// Package bootstrap wires configuration into services for the API server and
// the CLI.
package bootstrap

import (
	"errors"
	"strings"

	appai "github.com/bryanwahyu/coderefine/internal/application/ai"
	appreview "github.com/bryanwahyu/coderefine/internal/application/review"
	"github.com/bryanwahyu/coderefine/internal/config"
	"github.com/bryanwahyu/coderefine/internal/domain/ai"
	"github.com/bryanwahyu/coderefine/internal/infra/ai/ollama"
	"github.com/bryanwahyu/coderefine/internal/infra/ai/openai"
	"github.com/bryanwahyu/coderefine/internal/infra/heuristic"
)

// DefaultFactory returns the constructor for the configured default backend,
// or nil when the provider is none.
func DefaultFactory(cfg *config.Config) appai.DefaultFactory {
	switch strings.ToLower(cfg.Model.Provider) {
	case "openai":
		return func() (ai.Client, error) {
			if cfg.Model.APIKey == "" {
				return nil, errors.New("model.api_key is empty")
			}
			return openai.NewClient(openai.Options{
				Name:           "openai",
				APIKey:         cfg.Model.APIKey,
				BaseURL:        cfg.Model.BaseURL,
				Model:          cfg.Model.Name,
				ResponseFormat: cfg.Model.ResponseFormat,
				MaxTokens:      cfg.Model.MaxTokens,
			}), nil
		}
	case "ollama":
		return func() (ai.Client, error) {
			c, err := ollama.NewClient(cfg.Ollama.Host, cfg.Ollama.Model)
			if err != nil {
				return nil, err
			}
			return c, nil
		}
	}
	return nil
}

// AlternateFactory builds the per-credential backend. The default target is
// Groq's OpenAI-compatible endpoint.
func AlternateFactory(cfg *config.Config) appai.AlternateFactory {
	alt := cfg.Model.Alternate
	if alt.BaseURL == "" {
		return nil
	}
	return func(credential string) ai.Client {
		return openai.NewClient(openai.Options{
			Name:           "alternate",
			APIKey:         credential,
			BaseURL:        alt.BaseURL,
			Model:          alt.Model,
			ResponseFormat: alt.ResponseFormat,
			MaxTokens:      cfg.Model.MaxTokens,
		})
	}
}

func ModelService(cfg *config.Config) *appai.Service {
	return appai.NewService(DefaultFactory(cfg), AlternateFactory(cfg))
}

// ReviewService builds the orchestrator with the heuristic analyzer.
func ReviewService(cfg *config.Config, models appreview.ModelInvoker) (*appreview.Service, error) {
	strategy, err := appreview.ParseStrategy(cfg.Analysis.Strategy)
	if err != nil {
		return nil, err
	}
	svc := appreview.NewService(models, heuristic.NewAnalyzer(nil))
	svc.Strategy = strategy
	svc.MinCodeLength = cfg.Analysis.MinCodeLength
	svc.MaxCodeLength = cfg.Analysis.MaxCodeLength
	svc.Timeout = cfg.Analysis.RequestTimeout
	return svc, nil
}
