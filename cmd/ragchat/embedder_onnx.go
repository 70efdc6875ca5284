//go:build onnx

package main

import (
	"go.uber.org/zap"

	"github.com/becomeliminal/nim-rag/memory"
	"github.com/becomeliminal/nim-rag/memory/embedder/onnx"
)

func newOnnxEmbedder(cfg *config, logger *zap.Logger) (memory.Embedder, func(), error) {
	e, err := onnx.New(onnx.Config{
		ModelPath:         cfg.OnnxModel,
		TokenizerPath:     cfg.OnnxTokenizer,
		SharedLibraryPath: cfg.OnnxLib,
	}, onnx.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return e, func() {
		if err := e.Close(); err != nil {
			logger.Warn("failed to close onnx embedder", zap.Error(err))
		}
	}, nil
}
