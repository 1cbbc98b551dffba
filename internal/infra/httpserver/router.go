package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	domain "github.com/bryanwahyu/coderefine/internal/domain/review"
	"github.com/bryanwahyu/coderefine/internal/middleware"
)

const maxBodyBytes = 1 << 20

// Options tunes the router. The zero value serves every route without rate
// limiting or health checks.
type Options struct {
	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter
	MaxCodeLength  int
	DefaultMode    domain.Mode
	HealthCheckers map[string]middleware.HealthChecker
}

type Router struct {
	svc  domain.Service
	opts Options
}

func NewRouter(svc domain.Service, opts Options) http.Handler {
	if opts.DefaultMode == "" {
		opts.DefaultMode = domain.ModeReview
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	r := &Router{svc: svc, opts: opts}

	mux := chi.NewRouter()
	mux.Use(chimw.RealIP)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.CredentialHeader, middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, "Retry-After"},
		MaxAge:         300,
	}))

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())

	mux.Route("/v1", func(rt chi.Router) {
		rt.Get("/languages", r.wrap(r.handleLanguages))
		rt.Group(func(g chi.Router) {
			if opts.RateLimiter != nil {
				g.Use(middleware.RateLimitMiddleware(opts.RateLimiter))
			}
			g.Use(middleware.MaxBodySize(maxBodyBytes))
			g.Use(middleware.Credential)
			g.Post("/analyze", r.wrap(r.handleAnalyze))
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

type errorBody struct {
	Error string `json:"error"`
}

// wrap maps service errors onto status codes. The body always carries the
// user facing message, never the raw error.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status := statusFor(err)
		entry := middleware.Logger(req.Context()).WithError(err).WithField("status", status)
		if status >= 500 {
			entry.Error("analyze request failed")
		} else {
			entry.Warn("analyze request rejected")
		}
		if status == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "60")
		}
		msg := domain.UserMessage(err)
		if status == http.StatusRequestEntityTooLarge {
			msg = "request body too large"
		}
		writeJSON(w, status, errorBody{Error: msg})
	}
}

func statusFor(err error) int {
	var mie *domain.ModelInvocationError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.As(err, &mie):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type analyzeRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	Mode     string `json:"mode"`
	APIKey   string `json:"apiKey"`
}

// POST /v1/analyze
// Body: {"language": "...", "code": "...", "mode": "review|fix", "apiKey": "optional"}
// ?shape=fix answers with the narrow {status, errors, fixedCode, ...} object.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body analyzeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return &domain.ValidationError{Field: "body", Reason: "invalid JSON"}
	}

	language := middleware.CleanLanguage(body.Language)
	if err := middleware.ValidateCode(body.Code, r.opts.MaxCodeLength); err != nil {
		return err
	}
	mode := domain.Mode(body.Mode)
	if strings.TrimSpace(body.Mode) == "" {
		mode = r.opts.DefaultMode
	}
	if err := middleware.ValidateMode(string(mode)); err != nil {
		return err
	}

	credential := middleware.CredentialFromContext(req.Context())
	if key := strings.TrimSpace(body.APIKey); key != "" {
		if err := middleware.ValidateCredential(key); err != nil {
			return err
		}
		credential = key
	}

	res, err := r.svc.Analyze(req.Context(), domain.Request{
		Language:   language,
		Code:       body.Code,
		Credential: credential,
		Mode:       mode,
	})
	if err != nil {
		return err
	}

	if req.URL.Query().Get("shape") == "fix" {
		writeJSON(w, http.StatusOK, res.Fix(body.Code))
		return nil
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

// GET /v1/languages
func (r *Router) handleLanguages(w http.ResponseWriter, _ *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]any{
		"languages": domain.Languages,
		"modes":     []domain.Mode{domain.ModeReview, domain.ModeFix},
	})
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NewServer builds the http.Server around handler.
func NewServer(addr string, handler http.Handler, read, write time.Duration) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  read,
		WriteTimeout: write,
		IdleTimeout:  60 * time.Second,
	}
}
