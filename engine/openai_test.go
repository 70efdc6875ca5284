package engine_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/nim-rag/core"
	"github.com/becomeliminal/nim-rag/engine"
	"github.com/becomeliminal/nim-rag/stream"
)

const openAISSE = `data: {"id":"chatcmpl-1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"role":"assistant","content":""},"finish_reason":null}]}

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"content":"Hel"},"finish_reason":null}]}

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"content":"lo!"},"finish_reason":null}]}

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}

data: {"id":"chatcmpl-1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[],"usage":{"prompt_tokens":9,"completion_tokens":2,"total_tokens":11}}

data: [DONE]

`

func newOpenAIProvider(t *testing.T, handler http.HandlerFunc) *engine.OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return engine.NewOpenAIProvider(openai.NewClientWithConfig(cfg))
}

func TestOpenAIProvider_Stream(t *testing.T) {
	var req map[string]any
	p := newOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &req)
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, openAISSE)
	})
	e := engine.NewEngine(p, engine.WithSystemPrompt("Be brief."))

	prompt, err := e.CreatePrompt(context.Background(), core.UserMessage("hi"), nil)
	require.NoError(t, err)

	var got core.AssistantMessage
	out, err := stream.Collect(stream.Aggregate(e.Send(context.Background(), prompt), func(m core.AssistantMessage) {
		got = m
	}))
	require.NoError(t, err)
	require.Len(t, out, 5)

	assert.Equal(t, "Hello!", got.Content)
	assert.Equal(t, "chatcmpl-1", got.Metadata["id"])
	assert.Equal(t, "gpt-4o-mini", got.Metadata["model"])
	assert.Equal(t, "stop", got.Metadata["stop_reason"])
	assert.Equal(t, int64(9), got.Metadata["input_tokens"])
	assert.Equal(t, int64(2), got.Metadata["output_tokens"])

	assert.Equal(t, engine.DefaultOpenAIModel, req["model"])
	assert.Equal(t, true, req["stream"])
	messages, ok := req["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestOpenAIProvider_RequestError(t *testing.T) {
	p := newOpenAIProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"slow down","type":"rate_limit_error"}}`)
	})

	calls := 0
	_, err := stream.Collect(stream.Aggregate(
		p.Stream(context.Background(), &core.Prompt{Messages: []core.Message{core.UserMessage("hi")}}),
		func(core.AssistantMessage) { calls++ },
	))

	var apiErr *openai.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, calls)
}
