//go:build !onnx

package main

import (
	"errors"

	"go.uber.org/zap"

	"github.com/becomeliminal/nim-rag/memory"
)

var errOnnxUnavailable = errors.New("EMBEDDER=onnx requires building with -tags onnx")

func newOnnxEmbedder(*config, *zap.Logger) (memory.Embedder, func(), error) {
	return nil, nil, errOnnxUnavailable
}
