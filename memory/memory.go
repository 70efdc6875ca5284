package memory

import (
	"context"

	"github.com/becomeliminal/nim-rag/core"
)

// Store is the vector storage backend interface.
// Implementations: chromem.Store (local, embedded).
type Store interface {
	// SimilaritySearch returns documents similar to query, most similar first.
	SimilaritySearch(ctx context.Context, query string) ([]core.Document, error)

	// Add stores documents. The write is a single call; no transaction spans calls.
	Add(ctx context.Context, docs []core.Document) error
}

// Embedder converts text to vector embeddings.
// Implementations: hash (offline), onnx (local model), openai (API-based), cached (decorator).
//
// Note: Embedder is an implementation detail of a Store.
// The retrieval agent does not interact with Embedder directly.
type Embedder interface {
	// Embed converts a single text to embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns embedding vector size.
	Dimensions() int
}

// Reranker reorders or filters retrieved documents before they reach the prompt.
// None is shipped; the agent passes search results through when unset.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []core.Document) ([]core.Document, error)
}

// Metadata keys written on every persisted exchange document.
const (
	MetaExchangeID = "exchange_id"
	MetaRole       = "role"
	MetaCreatedAt  = "created_at"
)

// Config holds retrieval agent configuration.
type Config struct {
	// Enabled toggles retrieval and recording.
	// When false the agent still sets an empty "documents" option.
	// Default: true.
	Enabled bool

	// Record toggles persisting exchanges after a completed stream.
	// Default: true.
	Record bool
}

// DefaultConfig returns the defaults used when no config is given.
var DefaultConfig = &Config{
	Enabled: true,
	Record:  true,
}
