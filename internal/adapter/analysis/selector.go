package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codecompass-ai/codecompass/internal/domain"
	"github.com/codecompass-ai/codecompass/internal/llmjson"
	"github.com/codecompass-ai/codecompass/internal/port"
)

// Selection limits and fallback behavior.
const (
	digestFileLimit    = 15
	previewChars       = 300
	maxSelected        = 5
	errorFallbackCount = 3
)

// Selection provenance recorded on each context entry.
const (
	ReasonModelSelected = "Selected by AI as relevant to the question"
	ReasonFallback      = "Fallback selection due to AI selection error"
)

var fallbackKeywords = []string{"main", "index", "app", "config", "setup"}

// FileSelector picks the files most relevant to a question, with two
// degradation tiers: keyword matching when the model's answer is
// unparseable, positional fallback when the model call itself fails.
type FileSelector struct {
	llm port.LLMClient
}

// NewFileSelector creates a file selector.
func NewFileSelector(llm port.LLMClient) *FileSelector {
	return &FileSelector{llm: llm}
}

// Select returns context entries for the files chosen to answer the
// question. It never fails and never returns a path absent from the
// snapshot.
func (s *FileSelector) Select(ctx context.Context, snap *domain.RepositorySnapshot, question string) []domain.ContextEntry {
	if len(snap.Files) == 0 {
		return nil
	}

	response, err := s.llm.Complete(ctx, []port.Message{{Role: "user", Content: s.buildPrompt(snap, question)}})
	if err != nil {
		slog.Warn("file selection failed, using positional fallback", "error", err)
		return s.errorFallback(snap)
	}

	var selected []string
	if err := llmjson.Array(response, &selected); err != nil {
		slog.Warn("file selection response unparseable, using keyword fallback", "error", err)
		selected = s.keywordFallback(snap, question)
	}

	var entries []domain.ContextEntry
	for _, path := range selected {
		file, ok := snap.Files[path]
		if !ok {
			continue // hallucinated path
		}
		entries = append(entries, contextEntry(file, ReasonModelSelected))
	}
	return entries
}

func (s *FileSelector) buildPrompt(snap *domain.RepositorySnapshot, question string) string {
	var digest strings.Builder
	for i, path := range snap.SortedFilePaths() {
		if i >= digestFileLimit {
			break
		}
		file := snap.Files[path]
		preview := file.Content
		if len(preview) > previewChars {
			preview = preview[:previewChars]
		}
		fmt.Fprintf(&digest, "File: %s\nPurpose: %s\nSummary: %s\nFunctions: %s\nClasses: %s\nPreview: %s...\n---\n",
			path,
			file.Metadata.MainPurpose,
			file.Summary,
			strings.Join(head(file.Metadata.Functions, 5), ", "),
			strings.Join(head(file.Metadata.Classes, 5), ", "),
			preview,
		)
	}

	return fmt.Sprintf(`Repository: %s/%s
Architecture: %s
Technologies: %s
Entry Points: %s

Available Files Analysis:
%s
User Question: %s

Based on the question and file analysis above, select the 3-5 most relevant files that would help answer this question.

Respond with only a JSON array of file paths like: ["file1.py", "file2.js", "file3.html"]

Consider:
- Files whose purpose/summary relates to the question
- Files that contain functions/classes mentioned in the question
- Entry point files for setup/running questions
- Configuration files for setup questions
- Main application files for architecture questions`,
		snap.Owner, snap.Name,
		snap.Structure.ArchitectureType,
		strings.Join(snap.Structure.MainTechnologies, ", "),
		strings.Join(snap.Structure.EntryPoints, ", "),
		digest.String(),
		question,
	)
}

// keywordFallback matches the canonical entry-point keywords against file
// paths and summaries.
func (s *FileSelector) keywordFallback(snap *domain.RepositorySnapshot, question string) []string {
	var selected []string
	for _, path := range snap.SortedFilePaths() {
		pathLower := strings.ToLower(path)
		summaryLower := strings.ToLower(snap.Files[path].Summary)
		for _, keyword := range fallbackKeywords {
			if strings.Contains(pathLower, keyword) || strings.Contains(summaryLower, keyword) {
				selected = append(selected, path)
				break
			}
		}
		if len(selected) >= maxSelected {
			break
		}
	}
	return selected
}

// errorFallback returns the first few files in canonical order.
func (s *FileSelector) errorFallback(snap *domain.RepositorySnapshot) []domain.ContextEntry {
	var entries []domain.ContextEntry
	for _, path := range snap.SortedFilePaths() {
		if len(entries) >= errorFallbackCount {
			break
		}
		entries = append(entries, contextEntry(snap.Files[path], ReasonFallback))
	}
	return entries
}

func contextEntry(file domain.FileAnalysis, reason string) domain.ContextEntry {
	return domain.ContextEntry{
		Path:     file.Path,
		Summary:  file.Summary,
		Content:  file.Content,
		Metadata: file.Metadata,
		Reason:   reason,
	}
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
