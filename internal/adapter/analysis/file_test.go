package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMetadataParsesResponse(t *testing.T) {
	llm := &fakeLLM{responses: []any{
		"Here is the metadata:\n" + `{"functions": ["run", "setup"], "classes": ["App"], "imports": ["os"], "main_purpose": "entry point", "key_concepts": ["CLI"], "dependencies": ["click"]}`,
	}}
	a := NewFileAnalyzer(llm, 0)

	meta := a.ExtractMetadata(context.Background(), "main.py", "def run(): pass")
	assert.Equal(t, []string{"run", "setup"}, meta.Functions)
	assert.Equal(t, "entry point", meta.MainPurpose)
	assert.Contains(t, llm.lastPrompt(), "File: main.py")
	assert.Contains(t, llm.lastPrompt(), "def run(): pass")
}

func TestExtractMetadataModelFailureDegrades(t *testing.T) {
	llm := &fakeLLM{responses: []any{errors.New("gateway timeout")}}
	a := NewFileAnalyzer(llm, 0)

	meta := a.ExtractMetadata(context.Background(), "main.py", "x")
	assert.Equal(t, "Error analyzing main.py", meta.MainPurpose)
	assert.Empty(t, meta.Functions)
	assert.NotNil(t, meta.Functions)
}

func TestExtractMetadataUnparseableDegrades(t *testing.T) {
	llm := &fakeLLM{responses: []any{"I could not find any metadata in this file."}}
	a := NewFileAnalyzer(llm, 0)

	meta := a.ExtractMetadata(context.Background(), "main.py", "x")
	assert.Equal(t, "Code analysis failed", meta.MainPurpose)
}

func TestExtractMetadataTruncatesContent(t *testing.T) {
	llm := &fakeLLM{responses: []any{`{"main_purpose": "ok"}`}}
	a := NewFileAnalyzer(llm, 100)

	long := strings.Repeat("x", 500)
	a.ExtractMetadata(context.Background(), "big.py", long)

	require.NotEmpty(t, llm.prompts)
	assert.NotContains(t, llm.lastPrompt(), strings.Repeat("x", 101))
	assert.Contains(t, llm.lastPrompt(), strings.Repeat("x", 100))
}

func TestSummarizeReturnsModelText(t *testing.T) {
	llm := &fakeLLM{responses: []any{"This file is the application entry point."}}
	a := NewFileAnalyzer(llm, 0)

	summary := a.Summarize(context.Background(), "main.py", "def run(): pass", degradedMetadata("x"))
	assert.Equal(t, "This file is the application entry point.", summary)
}

func TestSummarizeFailureYieldsSentinel(t *testing.T) {
	llm := &fakeLLM{responses: []any{errors.New("boom")}}
	a := NewFileAnalyzer(llm, 0)

	summary := a.Summarize(context.Background(), "src/main.py", "x", degradedMetadata("x"))
	assert.Equal(t, "Summary generation failed for src/main.py", summary)
}
