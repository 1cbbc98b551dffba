package middleware

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/bryanwahyu/coderefine/internal/domain/review"
)

// Input validation and sanitization utilities

var credentialPattern = regexp.MustCompile(`^[\x21-\x7e]{8,256}$`)

const maxLanguageLength = 64

// CleanLanguage never rejects a language name. Control characters are
// stripped, and an overlong name becomes empty so analysis runs only the
// language-agnostic rules.
func CleanLanguage(lang string) string {
	lang = SanitizeString(lang)
	if len(lang) > maxLanguageLength {
		return ""
	}
	return lang
}

// ValidateMode checks mode against the known modes. Empty means review.
func ValidateMode(mode string) error {
	_, err := review.ParseMode(mode)
	return err
}

// ValidateCredential rejects keys that cannot be a bearer token.
func ValidateCredential(key string) error {
	if !credentialPattern.MatchString(key) {
		return &review.ValidationError{Field: "apiKey", Reason: "invalid API key format"}
	}
	return nil
}

// ValidateCode enforces the size bounds before the body reaches the service.
func ValidateCode(code string, maxLen int) error {
	if strings.TrimSpace(code) == "" {
		return &review.ValidationError{Field: "code", Reason: "must not be empty"}
	}
	if maxLen > 0 && len(code) > maxLen {
		return &review.ValidationError{Field: "code", Reason: fmt.Sprintf("must be at most %d characters", maxLen)}
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// MaxBodySize caps request bodies at n bytes.
func MaxBodySize(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
