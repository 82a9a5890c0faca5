package port

import (
	"errors"
	"fmt"
)

// Sentinel errors used across ports.
var (
	ErrRepoNotFound       = errors.New("repository not found")
	ErrSnapshotNotFound   = errors.New("snapshot not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrContentUnavailable = errors.New("file content unavailable")
	ErrQuotaExceeded      = errors.New("daily quota exceeded")
)

// UpstreamError is a non-404 failure from the repository host. It aborts the
// current top-level operation.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream API error (%d): %s", e.StatusCode, e.Body)
}

// LLMError is raised by the gateway after exhausting its retries. Callers
// above the gateway catch it and substitute a degraded result.
type LLMError struct {
	Attempts int
	Err      error
}

func (e *LLMError) Error() string {
	return fmt.Sprintf("llm call failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *LLMError) Unwrap() error { return e.Err }
