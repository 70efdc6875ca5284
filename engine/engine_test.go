package engine_test

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/nim-rag/core"
	"github.com/becomeliminal/nim-rag/engine"
	"github.com/becomeliminal/nim-rag/stream"
)

type fakeProvider struct {
	got *core.Prompt
}

func (p *fakeProvider) Stream(ctx context.Context, prompt *core.Prompt) core.Stream {
	p.got = prompt
	return stream.Of(&core.ChatResponse{Text: "ok"})
}

func TestEngine_PromptPropertiesOverlay(t *testing.T) {
	e := engine.NewEngine(&fakeProvider{}, engine.WithModel("m1"), engine.WithMaxTokens(256))

	props := e.PromptProperties(map[string]any{core.OptionModel: "m2", "extra": true})

	assert.Equal(t, "m2", props[core.OptionModel])
	assert.Equal(t, int64(256), props[core.OptionMaxTokens])
	assert.Equal(t, engine.DefaultSystemPrompt, props[core.OptionSystemPrompt])
	assert.Equal(t, true, props["extra"])

	again := e.PromptProperties(nil)
	assert.Equal(t, "m1", again[core.OptionModel], "defaults must not be mutated")
}

func TestEngine_CreatePromptLayout(t *testing.T) {
	e := engine.NewEngine(&fakeProvider{}, engine.WithSystemPrompt("Be brief."))

	history := []core.Message{
		core.UserMessage("my name is Jack"),
		{Role: core.RoleAssistant, Content: "Hi Jack"},
	}
	docs := []core.Document{{Content: "Jack lives in London"}, {Content: "Jack likes tea"}}

	prompt, err := e.CreatePrompt(context.Background(), core.Message{Content: "where do I live?"}, map[string]any{
		core.OptionHistory:   history,
		core.OptionDocuments: docs,
	})
	require.NoError(t, err)
	require.Len(t, prompt.Messages, 4)

	system := prompt.Messages[0]
	assert.Equal(t, core.RoleSystem, system.Role)
	assert.True(t, strings.HasPrefix(system.Content, "Be brief.\n\n=== RELEVANT DOCUMENTS ==="))
	assert.Contains(t, system.Content, "1. Jack lives in London")
	assert.Contains(t, system.Content, "2. Jack likes tea")

	assert.Equal(t, history, prompt.Messages[1:3])
	assert.Equal(t, core.UserMessage("where do I live?"), prompt.Messages[3])
	assert.Equal(t, docs, prompt.Options[core.OptionDocuments])
}

func TestEngine_CreatePromptWithoutSystem(t *testing.T) {
	e := engine.NewEngine(&fakeProvider{}, engine.WithSystemPrompt(""))

	prompt, err := e.CreatePrompt(context.Background(), core.UserMessage("hi"), nil)
	require.NoError(t, err)

	assert.Equal(t, []core.Message{core.UserMessage("hi")}, prompt.Messages)
}

func TestEngine_CreatePromptTruncatesDocuments(t *testing.T) {
	e := engine.NewEngine(&fakeProvider{})
	long := strings.Repeat("x", 5000)

	prompt, err := e.CreatePrompt(context.Background(), core.UserMessage("q"), map[string]any{
		core.OptionDocuments: []core.Document{{Content: long}},
	})
	require.NoError(t, err)

	assert.Less(t, len(prompt.Messages[0].Content), 2500)
	assert.Contains(t, prompt.Messages[0].Content, "...")
}

func TestEngine_CreatePromptTruncatesOnRuneBoundary(t *testing.T) {
	e := engine.NewEngine(&fakeProvider{})
	long := strings.Repeat("é", 3000)

	prompt, err := e.CreatePrompt(context.Background(), core.UserMessage("q"), map[string]any{
		core.OptionDocuments: []core.Document{{Content: long}},
	})
	require.NoError(t, err)

	system := prompt.Messages[0].Content
	assert.True(t, utf8.ValidString(system))
	assert.Contains(t, system, strings.Repeat("é", 1997)+"...")
}

func TestEngine_Send(t *testing.T) {
	p := &fakeProvider{}
	e := engine.NewEngine(p)

	prompt := &core.Prompt{Messages: []core.Message{core.UserMessage("hi")}}
	out, err := stream.Collect(e.Send(context.Background(), prompt))
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, "ok", out[0].Text)
	assert.Same(t, prompt, p.got)
}

func TestEngine_SendNilPrompt(t *testing.T) {
	_, err := stream.Collect(engine.NewEngine(&fakeProvider{}).Send(context.Background(), nil))
	assert.ErrorIs(t, err, engine.ErrNilPrompt)
}
