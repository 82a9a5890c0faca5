package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/codecompass-ai/codecompass/internal/domain"
)

func TestGenerateIncludesContextAndHistory(t *testing.T) {
	llm := &fakeLLM{responses: []any{"Run `python main.py` from the repo root."}}
	g := NewAnswerGenerator(llm)

	selected := []domain.ContextEntry{{
		Path:     "main.py",
		Summary:  "application entry point",
		Content:  "def run(): pass",
		Metadata: domain.FileMetadata{MainPurpose: "entry point"},
		Reason:   ReasonModelSelected,
	}}
	history := []domain.ConversationTurn{{
		Question:  "what language is this?",
		Answer:    "Python.",
		Timestamp: time.Now(),
		ContextFiles: []domain.ContextEntry{
			{Path: "setup.py", Summary: "packaging", Content: "from setuptools import setup"},
		},
	}}

	answer := g.Generate(context.Background(), "how do I run it?", selected, testSnapshot(), history)
	assert.Equal(t, "Run `python main.py` from the repo root.", answer)

	prompt := llm.lastPrompt()
	assert.Contains(t, prompt, "Repository: acme/widgets")
	assert.Contains(t, prompt, "User Question: how do I run it?")
	assert.Contains(t, prompt, "Q1: what language is this?")
	assert.Contains(t, prompt, "A1: Python.")
	assert.Contains(t, prompt, "  - setup.py")
	assert.Contains(t, prompt, "from setuptools import setup")
	assert.Contains(t, prompt, "File: main.py")
	assert.Contains(t, prompt, "def run(): pass")
}

func TestGenerateModelFailureIsApology(t *testing.T) {
	llm := &fakeLLM{responses: []any{errors.New("model unavailable")}}
	g := NewAnswerGenerator(llm)

	answer := g.Generate(context.Background(), "q", nil, testSnapshot(), nil)
	assert.Contains(t, answer, "I apologize, but I encountered an error generating an answer")
	assert.Contains(t, answer, "model unavailable")
}

func TestGenerateEmptyStructureFieldsReadUnknown(t *testing.T) {
	llm := &fakeLLM{responses: []any{"ok"}}
	g := NewAnswerGenerator(llm)

	snap := testSnapshot()
	snap.Structure = domain.StructureAnalysis{}
	g.Generate(context.Background(), "q", nil, snap, nil)
	assert.Contains(t, llm.lastPrompt(), "Architecture: Unknown")
}
