package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/codecompass-ai/codecompass/internal/domain"
	"github.com/codecompass-ai/codecompass/internal/llmjson"
	"github.com/codecompass-ai/codecompass/internal/port"
)

// FAQSynthesizer generates the snapshot's precomputed Q&A pairs.
type FAQSynthesizer struct {
	llm port.LLMClient
}

// NewFAQSynthesizer creates a FAQ synthesizer.
func NewFAQSynthesizer(llm port.LLMClient) *FAQSynthesizer {
	return &FAQSynthesizer{llm: llm}
}

// Synthesize generates 8-10 Q&A pairs from the structure analysis. Failures
// yield nil; a snapshot without a FAQ is still a valid snapshot.
func (s *FAQSynthesizer) Synthesize(ctx context.Context, structure domain.StructureAnalysis, fileCount int) []domain.QAPair {
	structureJSON, err := json.MarshalIndent(structure, "", "  ")
	if err != nil {
		return nil
	}

	prompt := fmt.Sprintf(`Based on this repository analysis, generate common questions developers might ask and their answers:

Repository Structure Summary:
%s

Files Processed: %d

Generate 8-10 practical Q&A pairs that new developers commonly ask about codebases. Format as JSON array:
[
  {"question": "How do I run this application?", "answer": "Based on the files..."},
  {"question": "Where is the main entry point?", "answer": "The main entry point..."},
  ...
]

Focus on practical questions about:
- Running/starting the application
- Testing procedures
- Main architecture/structure
- Key files and their purposes
- Development setup
- Common workflows

Return only valid JSON array, no other text.`, structureJSON, fileCount)

	response, err := s.llm.Complete(ctx, []port.Message{{Role: "user", Content: prompt}})
	if err != nil {
		slog.Warn("FAQ synthesis failed", "error", err)
		return nil
	}

	var pairs []domain.QAPair
	if err := llmjson.Array(response, &pairs); err != nil {
		slog.Warn("FAQ response unparseable", "error", err)
		return nil
	}
	return pairs
}
