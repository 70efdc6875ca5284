package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/becomeliminal/nim-rag/core"
)

// DefaultClaudeModel is used when the prompt carries no model option.
const DefaultClaudeModel = "claude-sonnet-4-20250514"

// ClaudeProvider streams responses from the Anthropic Messages API.
type ClaudeProvider struct {
	client *anthropic.Client
}

// NewClaudeProvider creates a provider with the given Anthropic client.
func NewClaudeProvider(client *anthropic.Client) *ClaudeProvider {
	return &ClaudeProvider{client: client}
}

// Stream sends prompt and yields one response per text delta, plus metadata
// responses for message start (id, model, input tokens) and message delta
// (stop reason, output tokens).
func (p *ClaudeProvider) Stream(ctx context.Context, prompt *core.Prompt) core.Stream {
	return func(yield func(*core.ChatResponse, error) bool) {
		stream := p.client.Messages.NewStreaming(ctx, claudeParams(prompt))
		defer stream.Close()

		for stream.Next() {
			resp := claudeResponse(stream.Current())
			if resp == nil {
				continue
			}
			if !yield(resp, nil) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			yield(nil, fmt.Errorf("claude stream: %w", err))
		}
	}
}

// claudeParams builds the message request. System messages are lifted into
// the request's system field.
func claudeParams(prompt *core.Prompt) anthropic.MessageNewParams {
	model := core.StringOption(prompt.Options, core.OptionModel)
	if model == "" {
		model = DefaultClaudeModel
	}
	maxTokens := core.Int64Option(prompt.Options, core.OptionMaxTokens)
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	var system []string
	var messages []anthropic.MessageParam
	for _, m := range prompt.Messages {
		switch m.Role {
		case core.RoleSystem:
			system = append(system, m.Content)
		case core.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{
			{Text: strings.Join(system, "\n\n")},
		}
	}
	return params
}

// claudeResponse converts a stream event, returning nil for events that carry
// neither text nor metadata.
func claudeResponse(event anthropic.MessageStreamEventUnion) *core.ChatResponse {
	switch evt := event.AsAny().(type) {
	case anthropic.MessageStartEvent:
		return &core.ChatResponse{Metadata: map[string]any{
			"id":           evt.Message.ID,
			"model":        string(evt.Message.Model),
			"input_tokens": evt.Message.Usage.InputTokens,
		}}
	case anthropic.ContentBlockDeltaEvent:
		if delta, ok := evt.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
			return &core.ChatResponse{Text: delta.Text}
		}
	case anthropic.MessageDeltaEvent:
		return &core.ChatResponse{Metadata: map[string]any{
			"stop_reason":   string(evt.Delta.StopReason),
			"output_tokens": evt.Usage.OutputTokens,
		}}
	}
	return nil
}
