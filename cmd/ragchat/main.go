// Command ragchat is an interactive chat with retrieval-augmented memory.
// Every exchange is stored in a local vector database and recalled in later turns.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/becomeliminal/nim-rag/core"
	"github.com/becomeliminal/nim-rag/engine"
	"github.com/becomeliminal/nim-rag/history"
	"github.com/becomeliminal/nim-rag/memory"
	"github.com/becomeliminal/nim-rag/memory/embedder/cached"
	"github.com/becomeliminal/nim-rag/memory/embedder/hash"
	embedopenai "github.com/becomeliminal/nim-rag/memory/embedder/openai"
	"github.com/becomeliminal/nim-rag/memory/store/chromem"
)

func main() {
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	agent, cleanup, err := buildAgent(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build agent", zap.Error(err))
	}
	defer cleanup()

	if err := run(ctx, agent, logger); err != nil {
		logger.Fatal("chat loop failed", zap.Error(err))
	}
}

// buildAgent wires engine -> history -> memory.
func buildAgent(cfg *config, logger *zap.Logger) (core.Agent, func(), error) {
	var provider engine.Provider
	switch cfg.Provider {
	case "openai":
		provider = engine.NewOpenAIProvider(goopenai.NewClient(cfg.OpenAIKey))
	default:
		client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicKey))
		provider = engine.NewClaudeProvider(&client)
	}

	base, closeBase, err := newEmbedder(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	embedder, err := cached.New(base, cached.Config{})
	if err != nil {
		closeBase()
		return nil, nil, err
	}
	cleanup := func() {
		embedder.Close()
		closeBase()
	}

	store, err := chromem.New(embedder, chromem.Config{
		TopK:        cfg.TopK,
		PersistPath: cfg.VectorPath,
		Compress:    cfg.VectorPath != "",
	}, chromem.WithLogger(logger))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	logger.Info("vector store ready",
		zap.Int("documents", store.Count()),
		zap.String("embedder", cfg.Embedder),
		zap.String("path", cfg.VectorPath))

	opts := []engine.Option{engine.WithMaxTokens(cfg.MaxTokens), engine.WithLogger(logger)}
	if cfg.Model != "" {
		opts = append(opts, engine.WithModel(cfg.Model))
	}

	agent := memory.NewAgent(
		history.NewAgent(engine.NewEngine(provider, opts...), history.NewStore(nil), history.WithLogger(logger)),
		store,
		memory.WithLogger(logger),
	)
	return agent, cleanup, nil
}

// newEmbedder builds the configured base embedder and its cleanup.
func newEmbedder(cfg *config, logger *zap.Logger) (memory.Embedder, func(), error) {
	switch cfg.Embedder {
	case "openai":
		return embedopenai.New(goopenai.NewClient(cfg.OpenAIKey), embedopenai.Config{}), func() {}, nil
	case "onnx":
		return newOnnxEmbedder(cfg, logger)
	default:
		return hash.New(hash.DefaultDimensions), func() {}, nil
	}
}

// run reads one message per line from stdin and streams each reply to stdout.
func run(ctx context.Context, agent core.Agent, logger *zap.Logger) error {
	conversationID := uuid.New().String()
	logger.Info("conversation started", zap.String("conversation_id", conversationID))

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			fmt.Print("> ")
			continue
		}

		prompt, err := agent.CreatePrompt(ctx, core.UserMessage(line), map[string]any{
			core.OptionConversationID: conversationID,
		})
		if err != nil {
			return fmt.Errorf("create prompt: %w", err)
		}

		for resp, err := range agent.Send(ctx, prompt) {
			if err != nil {
				fmt.Println()
				logger.Error("response failed", zap.Error(err))
				break
			}
			if resp != nil {
				fmt.Print(resp.Text)
			}
		}
		fmt.Print("\n> ")

		if ctx.Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}
