package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	CredentialKey contextKey = "model_credential"
	RequestIDKey  contextKey = "request_id"
)

// CredentialHeader carries a caller supplied model API key.
const CredentialHeader = "X-Model-Api-Key"

// Credential moves a caller supplied model key from the request headers into
// the context. Either X-Model-Api-Key or "Authorization: Bearer <key>" is
// accepted. Requests without one pass through untouched; the key is never
// checked here, only forwarded to the alternate backend.
func Credential(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(CredentialHeader))
		if key == "" {
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				key = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			}
		}
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		if err := ValidateCredential(key); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), CredentialKey, key)))
	})
}

// CredentialFromContext returns the key stored by Credential, or "".
func CredentialFromContext(ctx context.Context) string {
	if key, ok := ctx.Value(CredentialKey).(string); ok {
		return key
	}
	return ""
}
