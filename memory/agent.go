package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/becomeliminal/nim-rag/core"
	"github.com/becomeliminal/nim-rag/stream"
)

// Agent decorates a core.Agent with similarity-search retrieval and
// exchange recording.
type Agent struct {
	agent    core.Agent
	store    Store
	reranker Reranker
	config   *Config
	logger   *zap.Logger
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

// WithReranker installs a reranker applied to search results.
func WithReranker(r Reranker) Option {
	return func(a *Agent) {
		a.reranker = r
	}
}

// WithConfig overrides DefaultConfig.
func WithConfig(c *Config) Option {
	return func(a *Agent) {
		if c != nil {
			a.config = c
		}
	}
}

// NewAgent wraps agent with retrieval from and recording to store.
func NewAgent(agent core.Agent, store Store, opts ...Option) *Agent {
	a := &Agent{
		agent:  agent,
		store:  store,
		config: DefaultConfig,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.Named("memory")
	return a
}

var _ core.Agent = (*Agent)(nil)

// CreatePrompt searches the store for documents similar to the message and
// hands them to the wrapped agent under the "documents" option. The option is
// set even when nothing was found. Search errors are returned.
func (a *Agent) CreatePrompt(ctx context.Context, message core.Message, options map[string]any) (*core.Prompt, error) {
	docs := []core.Document{}
	if a.config.Enabled {
		found, err := a.store.SimilaritySearch(ctx, message.Content)
		if err != nil {
			return nil, fmt.Errorf("similarity search: %w", err)
		}
		a.logger.Debug("retrieved documents",
			zap.Int("count", len(found)),
			zap.String("query", truncateLog(message.Content, 50)))

		if a.reranker != nil {
			found, err = a.reranker.Rerank(ctx, message.Content, found)
			if err != nil {
				return nil, fmt.Errorf("rerank documents: %w", err)
			}
		}
		if found != nil {
			docs = found
		}
	}

	// Copy so the caller's map is never written to.
	props := lo.Assign(a.agent.PromptProperties(options))
	props[core.OptionDocuments] = docs

	return a.agent.CreatePrompt(ctx, message, props)
}

// Send streams the wrapped agent's response unchanged. When the stream
// completes, the prompt contents and the concatenated response text are
// written to the store as one two-document Add. Nothing is written when the
// stream fails or is abandoned. Write failures are logged, never returned.
func (a *Agent) Send(ctx context.Context, prompt *core.Prompt) core.Stream {
	upstream := a.agent.Send(ctx, prompt)
	if prompt == nil || !a.config.Enabled || !a.config.Record {
		return upstream
	}
	input := prompt.Contents()

	return stream.Tap(upstream, func() stream.Observer {
		var output strings.Builder
		return stream.Observer{
			OnNext: func(resp *core.ChatResponse) {
				if resp != nil {
					output.WriteString(resp.Text)
				}
			},
			OnComplete: func() {
				a.record(ctx, prompt.Options, input, output.String())
			},
			OnError: func(err error) {
				a.logger.Error("aggregation error", zap.Error(err))
			},
		}
	})
}

// PromptProperties delegates to the wrapped agent.
func (a *Agent) PromptProperties(options map[string]any) map[string]any {
	return a.agent.PromptProperties(options)
}

// record persists one exchange. Both documents share an exchange id so the
// response can be traced back to its prompt.
func (a *Agent) record(ctx context.Context, options map[string]any, input, output string) {
	exchangeID := uuid.New().String()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	newDoc := func(content string, role core.Role) core.Document {
		doc := core.NewDocument(content)
		doc.Metadata[MetaExchangeID] = exchangeID
		doc.Metadata[MetaRole] = string(role)
		doc.Metadata[MetaCreatedAt] = createdAt
		for _, key := range []string{core.OptionConversationID, core.OptionUserID} {
			if v := core.StringOption(options, key); v != "" {
				doc.Metadata[key] = v
			}
		}
		return doc
	}

	docs := []core.Document{
		newDoc(input, core.RoleUser),
		newDoc(output, core.RoleAssistant),
	}
	if err := a.store.Add(ctx, docs); err != nil {
		a.logger.Error("failed to record exchange",
			zap.String("exchange_id", exchangeID),
			zap.Error(err))
		return
	}
	a.logger.Debug("recorded exchange", zap.String("exchange_id", exchangeID))
}

// truncateLog truncates text for logging on a rune boundary.
func truncateLog(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
