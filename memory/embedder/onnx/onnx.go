//go:build onnx

package onnx

import (
	"context"
	"errors"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/becomeliminal/nim-rag/memory"
)

// Config configures the ONNX embedder.
type Config struct {
	// ModelPath is the path to the ONNX model file. Required.
	ModelPath string

	// TokenizerPath is the path to the tokenizer.json file. Required.
	TokenizerPath string

	// SharedLibraryPath points at libonnxruntime. Empty uses the
	// onnxruntime_go default lookup.
	SharedLibraryPath string

	// Dimensions is the embedding vector size.
	// Default: 384 (all-MiniLM-L6-v2).
	Dimensions int

	// SequenceLength is the fixed model input length.
	// Default: 128.
	SequenceLength int
}

// DefaultConfig holds the all-MiniLM-L6-v2 defaults.
var DefaultConfig = Config{
	Dimensions:     384,
	SequenceLength: 128,
}

var (
	ErrNoModel     = errors.New("onnx embedder requires a model path")
	ErrNoTokenizer = errors.New("onnx embedder requires a tokenizer path")
)

// Embedder generates embeddings with a local ONNX sentence-transformer.
type Embedder struct {
	session   *ort.DynamicAdvancedSession
	tokenizer *Tokenizer
	config    Config
	logger    *zap.Logger
}

// Option configures the embedder.
type Option func(*Embedder)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Embedder) {
		if l != nil {
			e.logger = l
		}
	}
}

var _ memory.Embedder = (*Embedder)(nil)

// New loads the tokenizer and model and initializes the ONNX runtime once
// per process.
func New(cfg Config, opts ...Option) (*Embedder, error) {
	if cfg.ModelPath == "" {
		return nil, ErrNoModel
	}
	if cfg.TokenizerPath == "" {
		return nil, ErrNoTokenizer
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultConfig.Dimensions
	}
	if cfg.SequenceLength < 2 {
		cfg.SequenceLength = DefaultConfig.SequenceLength
	}

	e := &Embedder{config: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("onnx")

	if !ort.IsInitialized() {
		if cfg.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnx runtime: %w", err)
		}
	}

	tokenizer, err := LoadTokenizer(cfg.TokenizerPath)
	if err != nil {
		return nil, err
	}
	e.tokenizer = tokenizer

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}
	e.session = session

	if metadata, err := session.GetModelMetadata(); err == nil {
		producer, _ := metadata.GetProducerName()
		version, _ := metadata.GetVersion()
		e.logger.Debug("model loaded",
			zap.String("path", cfg.ModelPath),
			zap.String("producer", producer),
			zap.Int64("version", version))
		metadata.Destroy()
	}

	return e, nil
}

// Embed converts text to a unit embedding vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seqLen := int64(e.config.SequenceLength)
	inputIDs, attentionMask, tokenTypeIDs := e.tokenizer.Encode(text, e.config.SequenceLength)

	inputs := make([]ort.Value, 0, 3)
	defer func() {
		for _, v := range inputs {
			v.Destroy()
		}
	}()
	for _, in := range []struct {
		name string
		data []int64
	}{
		{"input_ids", inputIDs},
		{"attention_mask", attentionMask},
		{"token_type_ids", tokenTypeIDs},
	} {
		tensor, err := ort.NewTensor(ort.NewShape(1, seqLen), in.data)
		if err != nil {
			return nil, fmt.Errorf("create %s tensor: %w", in.name, err)
		}
		inputs = append(inputs, tensor)
	}

	// nil outputs are allocated by Run
	outputs := []ort.Value{nil}
	if err := e.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("onnx inference: %w", err)
	}
	defer func() {
		for _, v := range outputs {
			if v != nil {
				v.Destroy()
			}
		}
	}()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}
	shape := out.GetShape()
	e.logger.Debug("inference complete", zap.Int64s("shape", shape))

	return pool(out.GetData(), shape, attentionMask, e.config.Dimensions)
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.config.Dimensions
}

// Close releases the ONNX session.
func (e *Embedder) Close() error {
	if e.session == nil {
		return nil
	}
	return e.session.Destroy()
}
