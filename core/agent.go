package core

import "context"

// Agent builds prompts and streams responses for them.
// Decorators (retrieval, history) wrap an Agent and are Agents themselves.
type Agent interface {
	// CreatePrompt assembles a prompt for the user's message.
	// options is the open configuration passed down the agent chain.
	CreatePrompt(ctx context.Context, message Message, options map[string]any) (*Prompt, error)

	// Send streams the response to a prompt.
	Send(ctx context.Context, prompt *Prompt) Stream

	// PromptProperties returns options with the agent's defaults applied.
	PromptProperties(options map[string]any) map[string]any
}

// Document is a unit of content stored in or retrieved from a vector store.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]any

	// Score is the similarity to the query; zero for documents not produced by a search.
	Score float32
}

// NewDocument creates a document with the given content and no metadata.
func NewDocument(content string) Document {
	return Document{Content: content, Metadata: map[string]any{}}
}
