package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/coderefine/internal/domain/review"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCredential(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
		status  int
	}{
		{"none", nil, "", http.StatusOK},
		{"custom header", map[string]string{CredentialHeader: "gsk_abcdefgh"}, "gsk_abcdefgh", http.StatusOK},
		{"bearer", map[string]string{"Authorization": "Bearer gsk_12345678"}, "gsk_12345678", http.StatusOK},
		{"header wins", map[string]string{CredentialHeader: "gsk_header1", "Authorization": "Bearer gsk_bearer1"}, "gsk_header1", http.StatusOK},
		{"basic ignored", map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}, "", http.StatusOK},
		{"malformed", map[string]string{CredentialHeader: "short"}, "", http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			h := Credential(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = CredentialFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodPost, "/v1/analyze", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRequestIDAndLogging(t *testing.T) {
	var buf bytes.Buffer
	logrus.SetOutput(&buf)
	logrus.SetFormatter(&logrus.JSONFormatter{})
	t.Cleanup(func() { logrus.SetOutput(io.Discard) })

	var seen string
	h := RequestID(LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/languages", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"`+seen+`"`)
	assert.Contains(t, buf.String(), `"status":418`)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "trace-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "trace-123", seen)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	t.Cleanup(limiter.Close)
	h := RateLimitMiddleware(limiter)(okHandler)

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/analyze", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	before := testutil.ToFloat64(metricRateLimited)
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, call("10.0.0.1:2000").Code)
	rec := call("10.0.0.1:3000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, before+1, testutil.ToFloat64(metricRateLimited))

	// a different client has its own bucket
	assert.Equal(t, http.StatusOK, call("10.0.0.2:1000").Code)
	assert.Equal(t, 2, limiter.Clients())
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	t.Cleanup(limiter.Close)
	now := time.Unix(1000, 0)
	limiter.now = func() time.Time { return now }

	limiter.Allow("a")
	now = now.Add(idleTimeout / 2)
	limiter.Allow("b")
	now = now.Add(idleTimeout/2 + time.Second)
	limiter.evictIdle()

	assert.Equal(t, 1, limiter.Clients())
}

type fakeBackend bool

func (f fakeBackend) Available(string) bool { return bool(f) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		checkers map[string]HealthChecker
		status   int
		overall  string
	}{
		{"healthy", map[string]HealthChecker{"model": &ModelHealthChecker{Backend: fakeBackend(true)}}, http.StatusOK, "healthy"},
		{"degraded", map[string]HealthChecker{"model": &ModelHealthChecker{Backend: fakeBackend(false)}}, http.StatusOK, "degraded"},
		{"required", map[string]HealthChecker{"model": &ModelHealthChecker{Required: true}}, http.StatusServiceUnavailable, "unhealthy"},
		{"unhealthy wins", map[string]HealthChecker{
			"model": &ModelHealthChecker{},
			"disk":  CheckFunc(func(context.Context) error { return errors.New("full") }),
		}, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HealthHandler(tc.checkers)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tc.status, rec.Code)
			var body HealthStatus
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tc.overall, body.Status)
			assert.Len(t, body.Checks, len(tc.checkers))
		})
	}
}

func TestMetrics(t *testing.T) {
	before := testutil.ToFloat64(metricAnalysesTotal.WithLabelValues("heuristic", "fix"))
	AnalysisMetrics{}.ObserveAnalysis(review.SourceHeuristic, review.ModeFix, 3*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(metricAnalysesTotal.WithLabelValues("heuristic", "fix")))

	AnalysisMetrics{}.ObserveModelFailure("groq", true)
	assert.GreaterOrEqual(t, testutil.ToFloat64(metricModelFailures.WithLabelValues("groq", "true")), 1.0)

	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/analyze", nil))
	assert.GreaterOrEqual(t, testutil.ToFloat64(metricRequestsTotal.WithLabelValues("POST", "502")), 1.0)

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "coderefine_analyses_total")
}

func TestValidators(t *testing.T) {
	assert.Equal(t, "c++", CleanLanguage("c++"))
	assert.Equal(t, "Visual Basic", CleanLanguage(" Visual\x00 Basic\x07 "))
	assert.Equal(t, "F*", CleanLanguage("F*"))
	assert.Equal(t, "", CleanLanguage(""))
	assert.Equal(t, "", CleanLanguage(strings.Repeat("x", 65)))

	assert.NoError(t, ValidateMode(""))
	assert.NoError(t, ValidateMode("FIX"))
	assert.ErrorIs(t, ValidateMode("explain"), review.ErrValidation)

	assert.NoError(t, ValidateCredential("gsk_abcdefgh"))
	assert.Error(t, ValidateCredential("has space inside"))

	assert.NoError(t, ValidateCode("print(1)", 10))
	assert.Error(t, ValidateCode(" \n", 10))
	assert.Error(t, ValidateCode(strings.Repeat("x", 11), 10))

	assert.Equal(t, "ab\tc", SanitizeString(" a\x00b\tc\x07 "))
}

func TestMaxBodySize(t *testing.T) {
	var readErr error
	h := MaxBodySize(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long")))

	var maxErr *http.MaxBytesError
	assert.ErrorAs(t, readErr, &maxErr)
}
