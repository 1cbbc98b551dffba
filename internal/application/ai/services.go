package ai

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/coderefine/internal/domain/ai"
	"github.com/bryanwahyu/coderefine/internal/domain/review"
)

// DefaultFactory builds the process-wide client. It runs at most once.
type DefaultFactory func() (ai.Client, error)

// AlternateFactory builds a fresh client bound to a caller supplied credential.
type AlternateFactory func(credential string) ai.Client

// Service invokes a model and validates its answer against the prompt schema.
// The default client is built lazily on first use and never mutated after;
// a credential always gets its own client that is not shared or pooled.
type Service struct {
	newDefault   DefaultFactory
	newAlternate AlternateFactory

	once   sync.Once
	client ai.Client
	err    error
}

func NewService(newDefault DefaultFactory, newAlternate AlternateFactory) *Service {
	return &Service{newDefault: newDefault, newAlternate: newAlternate}
}

func (s *Service) defaultClient() (ai.Client, error) {
	s.once.Do(func() {
		if s.newDefault == nil {
			s.err = ai.ErrBackendUnavailable
			return
		}
		s.client, s.err = s.newDefault()
		if s.err != nil {
			logrus.WithError(s.err).Warn("default model backend unavailable")
		}
	})
	return s.client, s.err
}

func (s *Service) clientFor(credential string) (ai.Client, error) {
	if credential == "" {
		return s.defaultClient()
	}
	if s.newAlternate == nil {
		return nil, ai.ErrBackendUnavailable
	}
	return s.newAlternate(credential), nil
}

// Available reports whether a call with credential has a backend to go to.
func (s *Service) Available(credential string) bool {
	_, err := s.clientFor(credential)
	return err == nil
}

// Invoke sends p and decodes the validated answer into out. Every failure is
// a *review.ModelInvocationError; nothing is retried.
func (s *Service) Invoke(ctx context.Context, p ai.Prompt, credential string, out any) error {
	client, err := s.clientFor(credential)
	if err != nil {
		return &review.ModelInvocationError{Backend: "none", Err: err}
	}
	fail := func(err error) error {
		return &review.ModelInvocationError{Backend: client.Backend(), Model: client.Model(), Err: err}
	}

	logrus.WithFields(logrus.Fields{
		"backend":   client.Backend(),
		"model":     client.Model(),
		"schema":    p.SchemaName,
		"alternate": credential != "",
	}).Debug("invoking model")

	raw, err := client.Generate(ctx, p)
	if err != nil {
		return fail(err)
	}
	raw = trimFences(raw)
	if raw == "" {
		return fail(review.ErrEmptyResponse)
	}

	if p.Schema != nil {
		err = jsonschema.VerifySchemaAndUnmarshal(*p.Schema, []byte(raw), out)
	} else {
		err = json.Unmarshal([]byte(raw), out)
	}
	if err != nil {
		return fail(&review.ValidationError{Field: p.SchemaName, Reason: "response does not match schema", Err: err})
	}
	if v, ok := out.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return fail(err)
		}
	}
	return nil
}

// trimFences strips the markdown fences some models wrap JSON in.
func trimFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
