package ollama

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/JexSrs/go-ollama"
	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/coderefine/internal/domain/ai"
	"github.com/bryanwahyu/coderefine/internal/domain/review"
)

const defaultHost = "http://localhost:11434"

// Client talks to a local Ollama server. Ollama cannot enforce a schema, so
// the schema travels in the system prompt and is validated by the caller.
type Client struct {
	client *ollama.Ollama
	host   string
	model  string
}

func NewClient(host, model string) (*Client, error) {
	if host == "" {
		host = defaultHost
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}
	if model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}

	logrus.WithFields(logrus.Fields{"host": host, "model": model}).Info("using ollama backend")

	return &Client{client: ollama.New(*u), host: host, model: model}, nil
}

func (c *Client) Backend() string { return "ollama" }

func (c *Client) Model() string { return c.model }

type generateResult struct {
	text string
	err  error
}

func (c *Client) Generate(ctx context.Context, p ai.Prompt) (string, error) {
	// go-ollama has no context support; the call is raced against ctx instead.
	done := make(chan generateResult, 1)
	go func() {
		res, err := c.client.Generate(
			c.client.Generate.WithModel(c.model),
			c.client.Generate.WithSystem(p.System),
			c.client.Generate.WithPrompt(p.User),
		)
		if err != nil {
			done <- generateResult{err: fmt.Errorf("ollama generate: %w", err)}
			return
		}
		if !res.Done {
			done <- generateResult{err: fmt.Errorf("ollama generate: response not finished")}
			return
		}
		if strings.TrimSpace(res.Response) == "" {
			done <- generateResult{err: review.ErrEmptyResponse}
			return
		}
		done <- generateResult{text: res.Response}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.text, r.err
	}
}
