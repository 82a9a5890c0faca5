package analysis

import (
	"context"

	"github.com/codecompass-ai/codecompass/internal/port"
)

// fakeLLM replays scripted responses and records the prompts it saw.
type fakeLLM struct {
	responses []any // string or error
	calls     int
	prompts   []string
}

func (f *fakeLLM) ModelName() string { return "fake-model" }

func (f *fakeLLM) Complete(ctx context.Context, messages []port.Message) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, messages[len(messages)-1].Content)
	if len(f.responses) == 0 {
		return "", &port.LLMError{Attempts: 3, Err: context.DeadlineExceeded}
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	if err, ok := next.(error); ok {
		return "", err
	}
	return next.(string), nil
}

func (f *fakeLLM) lastPrompt() string {
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}
