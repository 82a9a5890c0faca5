package port

import "context"

// Message is a single role/content pair sent to the model backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMClient is the single choke point for all language-model calls. The
// implementation owns model selection, token budget, temperature, and the
// retry/backoff policy. Callers must treat the returned text as untrusted
// free text that may or may not contain a well-formed JSON payload.
type LLMClient interface {
	// ModelName returns the fixed model identifier in use.
	ModelName() string

	// Complete sends the messages and returns the first choice's content.
	// After exhausting retries it fails with *LLMError.
	Complete(ctx context.Context, messages []Message) (string, error)
}
