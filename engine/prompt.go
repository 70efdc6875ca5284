package engine

import (
	"fmt"
	"strings"

	"github.com/becomeliminal/nim-rag/core"
)

// DefaultMaxTokens is the default maximum response tokens.
const DefaultMaxTokens int64 = 4096

// DefaultSystemPrompt is the default system prompt for the agent.
const DefaultSystemPrompt = `You are a helpful assistant with long-term memory.

GUIDELINES:
- Be conversational and concise
- Ask clarifying questions when needed
- Prefer facts from the relevant documents over guesses
- If the documents do not answer the question, say so`

// documentsBudget is the total characters spent on retrieved documents.
const documentsBudget = 2000

// buildSystemPrompt joins the configured system prompt with the retrieved documents.
func buildSystemPrompt(options map[string]any) string {
	system := core.StringOption(options, core.OptionSystemPrompt)
	docs := formatDocuments(core.DocumentsOption(options))
	switch {
	case docs == "":
		return system
	case system == "":
		return docs
	default:
		return system + "\n\n" + docs
	}
}

// formatDocuments formats retrieved documents into a structured block.
func formatDocuments(docs []core.Document) string {
	if len(docs) == 0 {
		return ""
	}

	var parts []string
	parts = append(parts, "=== RELEVANT DOCUMENTS ===\n")

	maxLength := documentsBudget / len(docs)
	if maxLength < 100 {
		maxLength = 100
	}

	for i, doc := range docs {
		parts = append(parts, fmt.Sprintf("%d. %s\n", i+1, truncate(doc.Content, maxLength)))
	}

	return strings.Join(parts, "\n")
}

// truncate truncates a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}
