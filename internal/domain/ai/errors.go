package ai

import "errors"

// ErrBackendUnavailable indicates no default model backend is configured and
// the caller supplied no credential of its own.
var ErrBackendUnavailable = errors.New("no model backend configured")
