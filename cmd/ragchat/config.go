package main

import (
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// config is read from the environment (and .env when present).
type config struct {
	Provider      string // claude | openai
	AnthropicKey  string
	OpenAIKey     string
	Model         string
	MaxTokens     int64
	Embedder      string // hash | openai | onnx
	VectorPath    string
	OnnxModel     string
	OnnxTokenizer string
	OnnxLib       string
	TopK          int
	LogLevel      string
}

func loadConfig() (*config, error) {
	cfg := &config{
		Provider:      getEnv("LLM_PROVIDER", "claude"),
		AnthropicKey:  os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		Model:         os.Getenv("MODEL"),
		Embedder:      getEnv("EMBEDDER", "hash"),
		VectorPath:    os.Getenv("VECTOR_PATH"),
		OnnxModel:     os.Getenv("ONNX_MODEL_PATH"),
		OnnxTokenizer: os.Getenv("ONNX_TOKENIZER_PATH"),
		OnnxLib:       os.Getenv("ONNX_LIB_PATH"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	maxTokens, err := strconv.ParseInt(getEnv("MAX_TOKENS", "4096"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse MAX_TOKENS: %w", err)
	}
	cfg.MaxTokens = maxTokens

	topK, err := strconv.Atoi(getEnv("TOP_K", "4"))
	if err != nil {
		return nil, fmt.Errorf("parse TOP_K: %w", err)
	}
	cfg.TopK = topK

	switch cfg.Provider {
	case "claude":
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is required")
		}
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.Provider)
	}

	switch cfg.Embedder {
	case "hash":
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("EMBEDDER=openai requires OPENAI_API_KEY")
		}
	case "onnx":
		if cfg.OnnxModel == "" || cfg.OnnxTokenizer == "" {
			return nil, fmt.Errorf("EMBEDDER=onnx requires ONNX_MODEL_PATH and ONNX_TOKENIZER_PATH")
		}
	default:
		return nil, fmt.Errorf("unknown EMBEDDER %q", cfg.Embedder)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
