package core

import (
	"iter"
	"strings"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a prompt or conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// ChatResponse is one fragment of a streamed response.
// Text is the increment (empty when the fragment carries none) and
// Metadata holds provider data such as model, stop reason or token usage.
type ChatResponse struct {
	Text     string
	Metadata map[string]any
}

// AssistantMessage is the result of folding every fragment of one stream.
type AssistantMessage struct {
	Content  string
	Metadata map[string]any
}

// Message converts the aggregated result into a history entry.
func (m AssistantMessage) Message() Message {
	return Message{Role: RoleAssistant, Content: m.Content}
}

// Stream is a streamed response. Each range over a Stream is one subscription.
// A non-nil error is always the last element; a consumer that stops ranging
// early cancels the subscription.
type Stream = iter.Seq2[*ChatResponse, error]

// Prompt is the fully assembled request handed to Agent.Send.
type Prompt struct {
	Messages []Message
	Options  map[string]any
}

// Contents returns the text of every message, concatenated in order.
func (p *Prompt) Contents() string {
	var b strings.Builder
	for _, m := range p.Messages {
		b.WriteString(m.Content)
	}
	return b.String()
}

// LastUserMessage returns the most recent user message in the prompt.
func (p *Prompt) LastUserMessage() (Message, bool) {
	for i := len(p.Messages) - 1; i >= 0; i-- {
		if p.Messages[i].Role == RoleUser {
			return p.Messages[i], true
		}
	}
	return Message{}, false
}
