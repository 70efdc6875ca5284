package engine

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/becomeliminal/nim-rag/core"
	"github.com/becomeliminal/nim-rag/stream"
)

// ErrNilPrompt is yielded by Send when called without a prompt.
var ErrNilPrompt = errors.New("nil prompt")

// Provider streams a model response for an assembled prompt.
// Implementations: ClaudeProvider, OpenAIProvider.
type Provider interface {
	Stream(ctx context.Context, prompt *core.Prompt) core.Stream
}

// Engine is the base agent: it assembles prompts from the option chain and
// streams them through a Provider. Decorators wrap it.
type Engine struct {
	provider Provider
	defaults map[string]any
	logger   *zap.Logger
}

// Option configures the engine.
type Option func(*Engine)

// WithModel sets the default model.
func WithModel(model string) Option {
	return func(e *Engine) {
		e.defaults[core.OptionModel] = model
	}
}

// WithMaxTokens sets the default maximum response tokens.
func WithMaxTokens(n int64) Option {
	return func(e *Engine) {
		e.defaults[core.OptionMaxTokens] = n
	}
}

// WithSystemPrompt sets the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(e *Engine) {
		e.defaults[core.OptionSystemPrompt] = prompt
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates a new engine over the given provider.
func NewEngine(provider Provider, opts ...Option) *Engine {
	e := &Engine{
		provider: provider,
		defaults: map[string]any{
			core.OptionMaxTokens:    DefaultMaxTokens,
			core.OptionSystemPrompt: DefaultSystemPrompt,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("engine")
	return e
}

var _ core.Agent = (*Engine)(nil)

// PromptProperties returns the engine defaults overlaid with options.
func (e *Engine) PromptProperties(options map[string]any) map[string]any {
	return lo.Assign(e.defaults, options)
}

// CreatePrompt lays out the prompt as: one system message (system prompt plus
// any retrieved documents), the conversation history, then the user message.
func (e *Engine) CreatePrompt(ctx context.Context, message core.Message, options map[string]any) (*core.Prompt, error) {
	props := e.PromptProperties(options)
	history := core.HistoryOption(props)

	messages := make([]core.Message, 0, len(history)+2)
	if system := buildSystemPrompt(props); system != "" {
		messages = append(messages, core.SystemMessage(system))
	}
	messages = append(messages, history...)
	if message.Role == "" {
		message.Role = core.RoleUser
	}
	messages = append(messages, message)

	e.logger.Debug("created prompt",
		zap.Int("messages", len(messages)),
		zap.Int("documents", len(core.DocumentsOption(props))))

	return &core.Prompt{Messages: messages, Options: props}, nil
}

// Send streams the provider's response to prompt.
func (e *Engine) Send(ctx context.Context, prompt *core.Prompt) core.Stream {
	if prompt == nil {
		return stream.Fail(ErrNilPrompt)
	}
	return e.provider.Stream(ctx, prompt)
}
