package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/codecompass-ai/codecompass/internal/domain"
	"github.com/codecompass-ai/codecompass/internal/port"
)

// AnswerGenerator produces the final answer from the selected file contexts
// and conversation history.
type AnswerGenerator struct {
	llm port.LLMClient
}

// NewAnswerGenerator creates an answer generator.
func NewAnswerGenerator(llm port.LLMClient) *AnswerGenerator {
	return &AnswerGenerator{llm: llm}
}

// Generate answers the question. A model failure produces an apologetic
// fallback answer rather than an error, so the turn still completes and is
// recorded.
func (g *AnswerGenerator) Generate(ctx context.Context, question string, selected []domain.ContextEntry, snap *domain.RepositorySnapshot, history []domain.ConversationTurn) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Repository: %s/%s\n", snap.Owner, snap.Name)
	fmt.Fprintf(&b, "Architecture: %s\n", orUnknown(snap.Structure.ArchitectureType))
	fmt.Fprintf(&b, "Technologies: %s\n", strings.Join(snap.Structure.MainTechnologies, ", "))

	if len(history) > 0 {
		b.WriteString("\nPrevious Conversation History (last 10 Q&A pairs):\n")
		for i, turn := range history {
			fmt.Fprintf(&b, "Q%d: %s\n", i+1, turn.Question)
			fmt.Fprintf(&b, "A%d: %s\n", i+1, turn.Answer)
			if len(turn.ContextFiles) > 0 {
				b.WriteString("Files referenced in Q&A:\n")
				for _, f := range turn.ContextFiles {
					fmt.Fprintf(&b, "  - %s\n", f.Path)
					if f.Summary != "" {
						fmt.Fprintf(&b, "    Summary: %s\n", f.Summary)
					}
					if f.Content != "" {
						fmt.Fprintf(&b, "    Code snippet:\n```\n%s\n```\n", f.Content)
					}
				}
			}
		}
	}

	if len(selected) > 0 {
		b.WriteString("\nRelevant Files for Current Question:\n")
		for _, item := range selected {
			fmt.Fprintf(&b, "\nFile: %s\n", item.Path)
			fmt.Fprintf(&b, "Purpose: %s\n", orUnknown(item.Metadata.MainPurpose))
			fmt.Fprintf(&b, "Summary: %s\n", item.Summary)
			if item.Content != "" {
				fmt.Fprintf(&b, "Code snippet:\n```\n%s\n```\n", item.Content)
			}
		}
	}

	prompt := fmt.Sprintf(`You are CodeCompass, an AI assistant helping developers understand a codebase. Answer the user's question based on the repository context and previous conversation history provided.

Repository Context:
%s

User Question: %s

Provide a helpful, detailed answer that:
1. Directly addresses the user's question
2. References specific files or code when relevant
3. Includes practical steps or commands when applicable
4. Uses the actual repository structure and content in your response
5. Is clear and actionable for a developer
6. Takes into account the previous conversation to maintain context and avoid redundancy.

If you cannot find specific information to answer the question, say so and suggest what the user might look for or where they might find the answer.`, b.String(), question)

	answer, err := g.llm.Complete(ctx, []port.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return fmt.Sprintf("I apologize, but I encountered an error generating an answer: %v. Please try rephrasing your question or ask about something more specific.", err)
	}
	return answer
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
