package ai

import (
	"context"

	"github.com/sashabaranov/go-openai/jsonschema"
)

//go:generate mockgen -source=port.go -destination=mock_port.go -package=ai

// Prompt is a rendered request for one schema-constrained generation.
type Prompt struct {
	System     string
	User       string
	SchemaName string
	Schema     *jsonschema.Definition
}

// Client sends a prompt to one backend and returns the raw text it produced.
// Implementations map provider quota errors onto review.ErrRateLimited.
type Client interface {
	Generate(ctx context.Context, p Prompt) (string, error)
	Backend() string
	Model() string
}
