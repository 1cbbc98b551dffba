package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/coderefine/internal/domain/ai"
	"github.com/bryanwahyu/coderefine/internal/domain/review"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 4096

	// FormatJSONSchema asks the backend to enforce the schema itself.
	FormatJSONSchema = "json_schema"
	// FormatJSONObject only asks for a JSON object; the schema travels in the system prompt.
	FormatJSONObject = "json_object"
)

// Options configures one OpenAI-compatible backend.
type Options struct {
	Name           string // label used in logs and errors
	APIKey         string
	BaseURL        string // empty means api.openai.com
	Model          string
	ResponseFormat string
	MaxTokens      int
	HTTPClient     *http.Client
}

type Client struct {
	*openai.Client
	name      string
	model     string
	format    string
	maxTokens int
}

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}

	c := &Client{
		Client:    openai.NewClientWithConfig(cfg),
		name:      opts.Name,
		model:     opts.Model,
		format:    opts.ResponseFormat,
		maxTokens: opts.MaxTokens,
	}
	if c.name == "" {
		c.name = "openai"
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.format == "" {
		c.format = FormatJSONSchema
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultMaxTokens
	}
	return c
}

func (c *Client) Backend() string { return c.name }

func (c *Client) Model() string { return c.model }

func (c *Client) Generate(ctx context.Context, p ai.Prompt) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
	}
	if c.format == FormatJSONSchema && p.Schema != nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   p.SchemaName,
				Schema: p.Schema,
				Strict: true,
			},
		}
	} else {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	// reasoning models (o1/o3/o4/gpt-5*) take MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(c.model) {
		req.MaxCompletionTokens = c.maxTokens
	} else {
		req.MaxTokens = c.maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", review.ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// classify maps quota and rate-limit answers onto review.ErrRateLimited.
func classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", review.ErrRateLimited, err)
	}
	return fmt.Errorf("failed to create chat completion: %w", err)
}
