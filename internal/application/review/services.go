package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/coderefine/internal/application"
	"github.com/bryanwahyu/coderefine/internal/domain/ai"
	domain "github.com/bryanwahyu/coderefine/internal/domain/review"
	"github.com/bryanwahyu/coderefine/internal/infra/ai/prompt"
)

// Strategy picks between the model and the heuristic path.
type Strategy string

const (
	// StrategyLocal never calls a model.
	StrategyLocal Strategy = "local"
	// StrategyModel always calls the model and surfaces its failures.
	StrategyModel Strategy = "model"
	// StrategyAuto calls the model when one is reachable and falls back to
	// the heuristic when it fails.
	StrategyAuto Strategy = "auto"
)

// ParseStrategy returns StrategyAuto for an empty string.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyAuto:
		return StrategyAuto, nil
	case StrategyLocal:
		return StrategyLocal, nil
	case StrategyModel:
		return StrategyModel, nil
	default:
		return "", fmt.Errorf("unknown strategy %q (want local, model or auto)", s)
	}
}

const (
	DefaultMinCodeLength = 10
	DefaultMaxCodeLength = 100_000
)

// ModelInvoker is the model adapter as seen by the orchestrator.
type ModelInvoker interface {
	Available(credential string) bool
	Invoke(ctx context.Context, p ai.Prompt, credential string, out any) error
}

// Observer receives analysis outcomes, e.g. for metrics. Optional.
type Observer interface {
	ObserveAnalysis(source domain.Source, mode domain.Mode, d time.Duration)
	ObserveModelFailure(backend string, rateLimited bool)
}

// Service implements domain.Service. It keeps no per-request state and is
// safe for concurrent use.
type Service struct {
	Model    ModelInvoker
	Analyzer domain.Analyzer
	Clock    application.Clock
	Observer Observer

	Strategy      Strategy
	MinCodeLength int
	MaxCodeLength int
	Timeout       time.Duration // bounds the model round trip; zero means none
}

var _ domain.Service = (*Service)(nil)

// NewService wires a service with default limits and the auto strategy.
func NewService(model ModelInvoker, analyzer domain.Analyzer) *Service {
	return &Service{
		Model:         model,
		Analyzer:      analyzer,
		Clock:         application.SystemClock{},
		Strategy:      StrategyAuto,
		MinCodeLength: DefaultMinCodeLength,
		MaxCodeLength: DefaultMaxCodeLength,
	}
}

// Validate checks a request without running it.
func (s *Service) Validate(req domain.Request) (domain.Mode, error) {
	mode, err := domain.ParseMode(string(req.Mode))
	if err != nil {
		return "", err
	}
	code := strings.TrimSpace(req.Code)
	switch {
	case code == "":
		return "", &domain.ValidationError{Field: "code", Reason: "must not be empty"}
	case s.MinCodeLength > 0 && len(code) < s.MinCodeLength:
		return "", &domain.ValidationError{Field: "code", Reason: fmt.Sprintf("must be at least %d characters", s.MinCodeLength)}
	case s.MaxCodeLength > 0 && len(req.Code) > s.MaxCodeLength:
		return "", &domain.ValidationError{Field: "code", Reason: fmt.Sprintf("must be at most %d characters", s.MaxCodeLength)}
	}
	return mode, nil
}

// Analyze runs one submission through the configured strategy.
func (s *Service) Analyze(ctx context.Context, req domain.Request) (domain.Result, error) {
	mode, err := s.Validate(req)
	if err != nil {
		return domain.Result{}, err
	}
	lang := domain.ParseLanguage(req.Language)
	start := s.now()
	log := logrus.WithFields(logrus.Fields{
		"language":       lang,
		"known_language": lang.Known(),
		"mode":           mode,
		"strategy":       s.strategy(),
	})

	var res domain.Result
	switch s.strategy() {
	case StrategyLocal:
		res = s.heuristic(req.Code, lang, mode)
	case StrategyModel:
		res, err = s.model(ctx, req, lang, mode)
		if err != nil {
			log.WithError(err).Warn("model analysis failed")
			return domain.Result{}, err
		}
	default:
		if s.Model == nil || !s.Model.Available(req.Credential) {
			res = s.heuristic(req.Code, lang, mode)
			break
		}
		res, err = s.model(ctx, req, lang, mode)
		if err != nil {
			log.WithError(err).Warn("model analysis failed, falling back to heuristic")
			res = s.heuristic(req.Code, lang, mode)
			res.Notice = fallbackNotice(err)
		}
	}

	d := s.since(start)
	if s.Observer != nil {
		s.Observer.ObserveAnalysis(res.Source, mode, d)
	}
	log.WithFields(logrus.Fields{"source": res.Source, "duration_ms": d.Milliseconds()}).Info("analysis done")
	return res, nil
}

func (s *Service) model(ctx context.Context, req domain.Request, lang domain.Language, mode domain.Mode) (domain.Result, error) {
	if s.Model == nil {
		return domain.Result{}, &domain.ModelInvocationError{Backend: "none", Err: ai.ErrBackendUnavailable}
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	p := prompt.Build(mode, string(lang), req.Code)
	var res domain.Result
	if mode == domain.ModeFix {
		var fix domain.FixReport
		if err := s.Model.Invoke(ctx, p, req.Credential, &fix); err != nil {
			return domain.Result{}, s.modelFailed(err)
		}
		res = fix.Normalize(req.Code)
	} else {
		if err := s.Model.Invoke(ctx, p, req.Credential, &res); err != nil {
			return domain.Result{}, s.modelFailed(err)
		}
		res.Bugs = nonNil(res.Bugs)
		res.PerformanceOptimizations = nonNil(res.PerformanceOptimizations)
		res.SecurityVulnerabilities = nonNil(res.SecurityVulnerabilities)
		res.BestPractices = nonNil(res.BestPractices)
	}
	res.Source = domain.SourceModel
	res.Notice = ""
	return res, nil
}

func (s *Service) modelFailed(err error) error {
	if s.Observer != nil {
		backend := "unknown"
		var mie *domain.ModelInvocationError
		if errors.As(err, &mie) {
			backend = mie.Backend
		}
		s.Observer.ObserveModelFailure(backend, errors.Is(err, domain.ErrRateLimited))
	}
	return err
}

// heuristic runs the offline analyzer. In fix mode the result is projected
// through the narrow shape so both paths agree on which categories are filled.
func (s *Service) heuristic(code string, lang domain.Language, mode domain.Mode) domain.Result {
	res := s.Analyzer.Analyze(code, lang)
	if mode == domain.ModeFix {
		res = res.Fix(code).Normalize(code)
	}
	res.Source = domain.SourceHeuristic
	return res
}

func fallbackNotice(err error) string {
	if errors.Is(err, domain.ErrRateLimited) {
		return "The model is temporarily rate limited, so this is the offline analysis. Please wait a minute and try again for a full review."
	}
	return "The model could not complete the analysis, so this is the offline analysis."
}

func (s *Service) strategy() Strategy {
	if s.Strategy == "" {
		return StrategyAuto
	}
	return s.Strategy
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Service) since(start time.Time) time.Duration {
	if s.Clock == nil {
		return time.Since(start)
	}
	return application.Since(s.Clock, start)
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
