// Package history keeps per-conversation chat history for an agent.
//
// The history agent injects past messages into each prompt and records the
// new exchange once the response stream completes. The assistant side of the
// exchange is the stream folded by stream.Aggregate.
package history

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/becomeliminal/nim-rag/core"
	"github.com/becomeliminal/nim-rag/stream"
)

// Config holds history configuration.
type Config struct {
	// MaxMessages caps the messages kept per conversation (oldest dropped).
	// Default: 20.
	MaxMessages int

	// TTL expires a conversation after this long without activity.
	// Default: 1 hour.
	TTL time.Duration
}

// DefaultConfig returns the defaults used when no config is given.
var DefaultConfig = &Config{
	MaxMessages: 20,
	TTL:         time.Hour,
}

// Store holds conversation histories in memory with expiry.
type Store struct {
	cache  *gocache.Cache
	config *Config
	mu     sync.Mutex
}

// NewStore creates a store. A nil config uses DefaultConfig.
func NewStore(config *Config) *Store {
	if config == nil {
		config = DefaultConfig
	}
	return &Store{
		cache:  gocache.New(config.TTL, config.TTL*2),
		config: config,
	}
}

// Messages returns a copy of the conversation's history, oldest first.
func (s *Store) Messages(conversationID string) []core.Message {
	v, ok := s.cache.Get(conversationID)
	if !ok {
		return nil
	}
	msgs := v.([]core.Message)
	return append([]core.Message(nil), msgs...)
}

// Append adds messages to a conversation and refreshes its expiry.
func (s *Store) Append(conversationID string, msgs ...core.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current []core.Message
	if v, ok := s.cache.Get(conversationID); ok {
		current = v.([]core.Message)
	}
	next := make([]core.Message, 0, len(current)+len(msgs))
	next = append(next, current...)
	next = append(next, msgs...)
	if limit := s.config.MaxMessages; limit > 0 && len(next) > limit {
		next = next[len(next)-limit:]
	}
	s.cache.Set(conversationID, next, gocache.DefaultExpiration)
}

// Clear drops a conversation.
func (s *Store) Clear(conversationID string) {
	s.cache.Delete(conversationID)
}

// Agent decorates a core.Agent with conversation history.
// Prompts without a conversation_id option are passed through untouched.
type Agent struct {
	agent  core.Agent
	store  *Store
	logger *zap.Logger
}

// Option configures the agent.
type Option func(*Agent)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAgent wraps agent with history kept in store.
func NewAgent(agent core.Agent, store *Store, opts ...Option) *Agent {
	a := &Agent{agent: agent, store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.Named("history")
	return a
}

var _ core.Agent = (*Agent)(nil)

// CreatePrompt injects the conversation's history under the "history" option.
func (a *Agent) CreatePrompt(ctx context.Context, message core.Message, options map[string]any) (*core.Prompt, error) {
	props := lo.Assign(a.agent.PromptProperties(options))
	if id := core.StringOption(props, core.OptionConversationID); id != "" {
		props[core.OptionHistory] = a.store.Messages(id)
	}
	return a.agent.CreatePrompt(ctx, message, props)
}

// Send streams the response unchanged and, on completion, appends the
// prompt's last user message and the aggregated reply to the conversation.
func (a *Agent) Send(ctx context.Context, prompt *core.Prompt) core.Stream {
	upstream := a.agent.Send(ctx, prompt)
	if prompt == nil {
		return upstream
	}
	id := core.StringOption(prompt.Options, core.OptionConversationID)
	if id == "" {
		return upstream
	}

	return stream.Aggregate(upstream, func(reply core.AssistantMessage) {
		var msgs []core.Message
		if user, ok := prompt.LastUserMessage(); ok {
			msgs = append(msgs, user)
		}
		msgs = append(msgs, reply.Message())
		a.store.Append(id, msgs...)
		a.logger.Debug("recorded turn",
			zap.String("conversation_id", id),
			zap.Int("chars", len(reply.Content)))
	}, stream.WithLogger(a.logger))
}

// PromptProperties delegates to the wrapped agent.
func (a *Agent) PromptProperties(options map[string]any) map[string]any {
	return a.agent.PromptProperties(options)
}
