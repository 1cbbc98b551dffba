package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appreview "github.com/bryanwahyu/coderefine/internal/application/review"
	domain "github.com/bryanwahyu/coderefine/internal/domain/review"
	"github.com/bryanwahyu/coderefine/internal/infra/heuristic"
	"github.com/bryanwahyu/coderefine/internal/middleware"
)

type stubService struct {
	got domain.Request
	res domain.Result
	err error
}

func (s *stubService) Analyze(_ context.Context, req domain.Request) (domain.Result, error) {
	s.got = req
	return s.res, s.err
}

func post(t *testing.T, h http.Handler, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestAnalyze_EndToEndHeuristic(t *testing.T) {
	svc := appreview.NewService(nil, heuristic.NewAnalyzer(nil))
	svc.Strategy = appreview.StrategyLocal
	h := NewRouter(svc, Options{})

	rec := post(t, h, "/v1/analyze", `{"language":"JavaScript","code":"var x = 1; if (x == 1) { eval(y); }"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	var res domain.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, domain.SourceHeuristic, res.Source)
	assert.Equal(t, "let x = 1; if (x === 1) { Function(y); }", res.RewrittenCode)
	assert.NotEmpty(t, res.Bugs)
	assert.NotEmpty(t, res.SecurityVulnerabilities)
}

func TestAnalyze_UnrecognizedLanguageStillAnalyzed(t *testing.T) {
	svc := appreview.NewService(nil, heuristic.NewAnalyzer(nil))
	svc.Strategy = appreview.StrategyLocal
	h := NewRouter(svc, Options{})

	for _, lang := range []string{"Visual Basic", "Objective C", "", "F*"} {
		t.Run(lang, func(t *testing.T) {
			body, err := json.Marshal(map[string]string{"language": lang, "code": "x = eval(input()) # TODO"})
			require.NoError(t, err)

			rec := post(t, h, "/v1/analyze", string(body), nil)

			require.Equal(t, http.StatusOK, rec.Code)
			var res domain.Result
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
			assert.Contains(t, res.Bugs, "eval() is a critical bug - it's a security risk and performance issue")
			assert.Contains(t, res.Bugs, "Found TODO/FIXME comments indicating incomplete or problematic code")
			assert.Contains(t, res.SecurityVulnerabilities, "eval() is a critical security risk - avoid at all costs")
		})
	}
}

func TestAnalyze_FixShapeReportsUnfixableErrors(t *testing.T) {
	svc := appreview.NewService(nil, heuristic.NewAnalyzer(nil))
	svc.Strategy = appreview.StrategyLocal
	h := NewRouter(svc, Options{})

	rec := post(t, h, "/v1/analyze?shape=fix", `{"language":"python","code":"rows = db.execute(sql, params)"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var fix domain.FixReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&fix))
	assert.Equal(t, domain.FixStatusFixed, fix.Status)
	assert.Contains(t, fix.Errors, "Be cautious with SQL queries - use parameterized queries to prevent SQL injection")
	assert.Equal(t, "rows = db.execute(sql, params)", fix.FixedCode)
}

func TestAnalyze_FixShape(t *testing.T) {
	stub := &stubService{res: domain.Result{Bugs: []string{"b"}, RewrittenCode: "fixed();", TimeComplexity: "O(1)", SpaceComplexity: "O(1)"}}
	h := NewRouter(stub, Options{})

	rec := post(t, h, "/v1/analyze?shape=fix", `{"language":"js","code":"broken();","mode":"fix"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var fix domain.FixReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&fix))
	assert.Equal(t, domain.FixStatusFixed, fix.Status)
	assert.Equal(t, "fixed();", fix.FixedCode)
	assert.Equal(t, domain.ModeFix, stub.got.Mode)
}

func TestAnalyze_CredentialSources(t *testing.T) {
	stub := &stubService{}
	h := NewRouter(stub, Options{DefaultMode: domain.ModeFix})

	post(t, h, "/v1/analyze", `{"language":"py","code":"print('hello')"}`, map[string]string{middleware.CredentialHeader: "gsk_fromheader"})
	assert.Equal(t, "gsk_fromheader", stub.got.Credential)
	assert.Equal(t, domain.ModeFix, stub.got.Mode)

	post(t, h, "/v1/analyze", `{"language":"py","code":"print('hello')","apiKey":"gsk_frombody1"}`, map[string]string{middleware.CredentialHeader: "gsk_fromheader"})
	assert.Equal(t, "gsk_frombody1", stub.got.Credential)
}

func TestAnalyze_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		status     int
		message    string
		retryAfter string
	}{
		{
			name:    "validation",
			err:     &domain.ValidationError{Field: "code", Reason: "must be at least 10 characters"},
			status:  http.StatusBadRequest,
			message: "code: must be at least 10 characters",
		},
		{
			name:       "rate limited",
			err:        &domain.ModelInvocationError{Backend: "groq", Err: fmt.Errorf("%w: 429", domain.ErrRateLimited)},
			status:     http.StatusTooManyRequests,
			message:    "The model is temporarily rate limited. Please wait a minute and try again.",
			retryAfter: "60",
		},
		{
			name:    "model failure",
			err:     &domain.ModelInvocationError{Backend: "openai", Err: &domain.ValidationError{Field: "code_review", Reason: "response does not match schema"}},
			status:  http.StatusBadGateway,
			message: "Analysis failed. An unexpected error occurred, please try again.",
		},
		{
			name:    "unexpected",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			message: "Analysis failed. An unexpected error occurred, please try again.",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewRouter(&stubService{err: tc.err}, Options{})

			rec := post(t, h, "/v1/analyze", `{"language":"js","code":"console.log(1);"}`, nil)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.retryAfter, rec.Header().Get("Retry-After"))
			assert.Equal(t, tc.message, decodeError(t, rec))
		})
	}
}

func TestAnalyze_RequestValidation(t *testing.T) {
	stub := &stubService{}
	h := NewRouter(stub, Options{MaxCodeLength: 20})

	tests := map[string]string{
		"bad json":     `{"language":`,
		"empty code":   `{"language":"py","code":"  "}`,
		"long code":    `{"language":"py","code":"` + strings.Repeat("x", 21) + `"}`,
		"unknown mode": `{"language":"py","code":"print('hello')","mode":"explain"}`,
		"bad key":      `{"language":"py","code":"print('hello')","apiKey":"no spaces allowed"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := post(t, h, "/v1/analyze", body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeError(t, rec))
		})
	}
	assert.Empty(t, stub.got.Code, "service must not be reached")
}

func TestAnalyze_BodyTooLarge(t *testing.T) {
	h := NewRouter(&stubService{}, Options{})
	body := `{"language":"py","code":"` + strings.Repeat("x", maxBodyBytes) + `"}`

	rec := post(t, h, "/v1/analyze", body, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAnalyze_RateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(0.001, 1)
	t.Cleanup(limiter.Close)
	h := NewRouter(&stubService{}, Options{RateLimiter: limiter})

	body := `{"language":"py","code":"print('hello')"}`
	assert.Equal(t, http.StatusOK, post(t, h, "/v1/analyze", body, nil).Code)
	rec := post(t, h, "/v1/analyze", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestOperationalRoutes(t *testing.T) {
	h := NewRouter(&stubService{}, Options{HealthCheckers: map[string]middleware.HealthChecker{
		"model": &middleware.ModelHealthChecker{},
	}})

	for path, want := range map[string]int{
		"/health":       http.StatusOK,
		"/readyz":       http.StatusOK,
		"/livez":        http.StatusOK,
		"/metrics":      http.StatusOK,
		"/v1/languages": http.StatusOK,
		"/v1/missing":   http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/languages", nil))
	var body struct {
		Languages []string `json:"languages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Contains(t, body.Languages, "c++")
}

func TestCORSPreflight(t *testing.T) {
	h := NewRouter(&stubService{}, Options{AllowedOrigins: []string{"https://refine.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/v1/analyze", nil)
	req.Header.Set("Origin", "https://refine.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", middleware.CredentialHeader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://refine.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
