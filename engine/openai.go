package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"

	"github.com/becomeliminal/nim-rag/core"
)

// DefaultOpenAIModel is used when the prompt carries no model option.
const DefaultOpenAIModel = openai.GPT4oMini

// OpenAIProvider streams responses from the OpenAI chat completions API.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a provider with the given OpenAI client.
func NewOpenAIProvider(client *openai.Client) *OpenAIProvider {
	return &OpenAIProvider{client: client}
}

// Stream sends prompt and yields one response per content delta. The first
// chunk also carries id and model, the chunk ending a choice carries
// stop_reason, and the trailing usage chunk carries token counts.
func (p *OpenAIProvider) Stream(ctx context.Context, prompt *core.Prompt) core.Stream {
	return func(yield func(*core.ChatResponse, error) bool) {
		stream, err := p.client.CreateChatCompletionStream(ctx, openAIRequest(prompt))
		if err != nil {
			yield(nil, fmt.Errorf("openai stream: %w", err))
			return
		}
		defer stream.Close()

		first := true
		for {
			chunk, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, fmt.Errorf("openai stream: %w", err))
				return
			}

			resp := openAIResponse(chunk, first)
			first = false
			if resp == nil {
				continue
			}
			if !yield(resp, nil) {
				return
			}
		}
	}
}

func openAIRequest(prompt *core.Prompt) openai.ChatCompletionRequest {
	model := core.StringOption(prompt.Options, core.OptionModel)
	if model == "" {
		model = DefaultOpenAIModel
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(prompt.Messages))
	for _, m := range prompt.Messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case core.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case core.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	return openai.ChatCompletionRequest{
		Model:         model,
		MaxTokens:     int(core.Int64Option(prompt.Options, core.OptionMaxTokens)),
		Messages:      messages,
		Stream:        true,
		StreamOptions: &openai.StreamOptions{IncludeUsage: true},
	}
}

// openAIResponse converts a stream chunk, returning nil for empty chunks.
func openAIResponse(chunk openai.ChatCompletionStreamResponse, first bool) *core.ChatResponse {
	resp := &core.ChatResponse{}
	metadata := map[string]any{}

	if first {
		metadata["id"] = chunk.ID
		metadata["model"] = chunk.Model
	}
	if len(chunk.Choices) > 0 {
		choice := chunk.Choices[0]
		resp.Text = choice.Delta.Content
		if choice.FinishReason != "" {
			metadata["stop_reason"] = string(choice.FinishReason)
		}
	}
	if chunk.Usage != nil {
		metadata["input_tokens"] = int64(chunk.Usage.PromptTokens)
		metadata["output_tokens"] = int64(chunk.Usage.CompletionTokens)
	}

	if len(metadata) > 0 {
		resp.Metadata = metadata
	}
	if resp.Text == "" && resp.Metadata == nil {
		return nil
	}
	return resp
}
