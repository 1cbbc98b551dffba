package review

import "context"

// Analyzer is the offline analysis path. It must not fail for well-formed input.
type Analyzer interface {
	Analyze(code string, lang Language) Result
}

// Service is the public entry point used by the HTTP layer and the CLI.
type Service interface {
	Analyze(ctx context.Context, req Request) (Result, error)
}
