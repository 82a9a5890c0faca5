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

// StructureAnalyzer produces the whole-repository architectural analysis
// from the walked tree.
type StructureAnalyzer struct {
	llm          port.LLMClient
	maxTreeChars int
}

// NewStructureAnalyzer creates a structure analyzer. maxTreeChars <= 0
// selects the default budget.
func NewStructureAnalyzer(llm port.LLMClient, maxTreeChars int) *StructureAnalyzer {
	if maxTreeChars <= 0 {
		maxTreeChars = DefaultMaxContentChars
	}
	return &StructureAnalyzer{llm: llm, maxTreeChars: maxTreeChars}
}

// Analyze asks the model to characterize the repository from its tree.
// Failures produce a StructureAnalysis whose Error field is set; the
// pipeline stores it and continues.
func (a *StructureAnalyzer) Analyze(ctx context.Context, ident domain.RepositoryIdentity, tree domain.TreeNode) domain.StructureAnalysis {
	treeJSON, err := json.MarshalIndent(tree.Children, "", "  ")
	if err != nil {
		return domain.StructureAnalysis{Error: "Structure analysis failed: " + err.Error()}
	}
	treeText := string(treeJSON)
	if len(treeText) > a.maxTreeChars {
		treeText = treeText[:a.maxTreeChars]
	}

	prompt := fmt.Sprintf(`Analyze this repository structure and provide insights:

Repository: %s
Structure:
%s

Provide analysis in JSON format with these fields:
- architecture_type: Type of application (web app, library, microservice, etc.)
- main_technologies: List of main programming languages/frameworks identified
- project_structure: Description of how the project is organized
- entry_points: Likely main files where execution starts
- build_system: Build tools or package managers detected
- testing_approach: Testing files/frameworks found
- documentation_files: README, docs, or other documentation found
- key_directories: Important directories and their purposes

Return only valid JSON, no other text.`, ident, treeText)

	response, err := a.llm.Complete(ctx, []port.Message{{Role: "user", Content: prompt}})
	if err != nil {
		slog.Warn("structure analysis failed", "repo", ident.String(), "error", err)
		return domain.StructureAnalysis{Error: "Structure analysis failed: " + err.Error()}
	}

	var structure domain.StructureAnalysis
	if err := llmjson.Object(response, &structure); err != nil {
		slog.Warn("structure analysis response unparseable", "repo", ident.String(), "error", err)
		return domain.StructureAnalysis{Error: "Failed to parse structure analysis"}
	}
	return structure
}
