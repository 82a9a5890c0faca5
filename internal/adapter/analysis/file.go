// Package analysis contains the model-backed analyzers: per-file metadata
// and summaries, whole-repository structure, FAQ synthesis, context file
// selection, and answer generation.
//
// Every analyzer degrades instead of failing: a model or parse error yields
// a sentinel value the pipeline can store and move past, so one bad file or
// one flaky completion never aborts a processing run.
package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codecompass-ai/codecompass/internal/domain"
	"github.com/codecompass-ai/codecompass/internal/llmjson"
	"github.com/codecompass-ai/codecompass/internal/port"
)

// DefaultMaxContentChars bounds file content included in prompts.
const DefaultMaxContentChars = 1_000_000

// FileAnalyzer extracts metadata and summaries for individual files.
type FileAnalyzer struct {
	llm             port.LLMClient
	maxContentChars int
}

// NewFileAnalyzer creates a file analyzer. maxContentChars <= 0 selects the
// default budget.
func NewFileAnalyzer(llm port.LLMClient, maxContentChars int) *FileAnalyzer {
	if maxContentChars <= 0 {
		maxContentChars = DefaultMaxContentChars
	}
	return &FileAnalyzer{llm: llm, maxContentChars: maxContentChars}
}

// Truncate clips content to the analyzer's prompt budget.
func (a *FileAnalyzer) Truncate(content string) string {
	if len(content) > a.maxContentChars {
		return content[:a.maxContentChars]
	}
	return content
}

// ExtractMetadata asks the model for structured metadata about one file.
// It never fails: model errors and unparseable output both produce degraded
// metadata whose MainPurpose marks what went wrong.
func (a *FileAnalyzer) ExtractMetadata(ctx context.Context, path, content string) domain.FileMetadata {
	prompt := fmt.Sprintf(`Analyze this code file and extract metadata in JSON format:

File: %s
Content:
`+"```"+`
%s
`+"```"+`

Extract and return ONLY a JSON object with these fields:
- functions: List of function/method names
- classes: List of class names
- imports: List of imported modules/libraries
- main_purpose: Brief description of file's purpose
- key_concepts: List of important concepts/patterns used
- dependencies: List of external dependencies used

Return only valid JSON, no other text.`, path, a.Truncate(content))

	response, err := a.llm.Complete(ctx, []port.Message{{Role: "user", Content: prompt}})
	if err != nil {
		slog.Warn("file metadata extraction failed", "path", path, "error", err)
		return degradedMetadata("Error analyzing " + path)
	}

	var meta domain.FileMetadata
	if err := llmjson.Object(response, &meta); err != nil {
		slog.Warn("file metadata response unparseable", "path", path, "error", err)
		return degradedMetadata("Code analysis failed")
	}
	return meta
}

// Summarize asks the model for a developer-facing summary of one file.
// Failures yield a sentinel summary instead of an error.
func (a *FileAnalyzer) Summarize(ctx context.Context, path, content string, meta domain.FileMetadata) string {
	prompt := fmt.Sprintf(`Summarize this code file for developers who are new to the codebase:

File: %s
Metadata: functions=%v classes=%v imports=%v purpose=%q
Content:
`+"```"+`
%s
`+"```"+`

Provide a clear, concise summary that includes:
1. What this file does
2. How it fits into the larger application
3. Key functions/classes and their purposes
4. Important dependencies or patterns used
5. Any setup or usage notes for developers

Keep the summary practical and focused on helping new developers understand the code.`,
		path, meta.Functions, meta.Classes, meta.Imports, meta.MainPurpose, a.Truncate(content))

	summary, err := a.llm.Complete(ctx, []port.Message{{Role: "user", Content: prompt}})
	if err != nil {
		slog.Warn("file summary generation failed", "path", path, "error", err)
		return "Summary generation failed for " + path
	}
	return summary
}

func degradedMetadata(purpose string) domain.FileMetadata {
	return domain.FileMetadata{
		Functions:    []string{},
		Classes:      []string{},
		Imports:      []string{},
		MainPurpose:  purpose,
		KeyConcepts:  []string{},
		Dependencies: []string{},
	}
}
