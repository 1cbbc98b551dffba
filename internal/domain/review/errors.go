package review

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("invalid analysis request")

	// ErrRateLimited indicates the model provider refused the call because of
	// a quota or rate limit (HTTP 429 or similar). It is retryable.
	ErrRateLimited = errors.New("model rate limited")

	// ErrEmptyResponse is returned when the backend answered with no content.
	ErrEmptyResponse = errors.New("empty model response")
)

// ValidationError describes a malformed request or a backend answer that does
// not match the declared output schema.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := e.Reason
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ModelInvocationError wraps any failure of the model path.
type ModelInvocationError struct {
	Backend string
	Model   string
	Err     error
}

func (e *ModelInvocationError) Error() string {
	return fmt.Sprintf("model invocation failed (backend=%s model=%s): %v", e.Backend, e.Model, e.Err)
}

func (e *ModelInvocationError) Unwrap() error { return e.Err }

// RateLimited reports whether the failure is the retryable subtype.
func (e *ModelInvocationError) RateLimited() bool {
	return errors.Is(e.Err, ErrRateLimited)
}

// UserMessage renders err for display. Rate limits get retry guidance,
// validation errors keep their reason, anything else is generic.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrRateLimited) {
		return "The model is temporarily rate limited. Please wait a minute and try again."
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		var mie *ModelInvocationError
		if !errors.As(err, &mie) {
			return ve.Error()
		}
	}
	return "Analysis failed. An unexpected error occurred, please try again."
}
