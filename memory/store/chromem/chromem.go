package chromem

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/becomeliminal/nim-rag/core"
	"github.com/becomeliminal/nim-rag/memory"
)

// ErrNoEmbedder is returned by New when no embedder is configured.
var ErrNoEmbedder = errors.New("chromem store requires an embedder")

// Config configures the store.
type Config struct {
	// Collection is the chromem collection holding all documents.
	// Default: "documents".
	Collection string

	// TopK caps the number of documents returned by a similarity search.
	// Default: 4.
	TopK int

	// MinSimilarity drops results below this cosine similarity [0.0-1.0].
	// Default: 0 (keep everything chromem returns).
	MinSimilarity float32

	// PersistPath, when set, stores the database on disk at this directory.
	PersistPath string

	// Compress gzips persisted files. Only used with PersistPath.
	Compress bool
}

// DefaultConfig returns sensible defaults for a local store.
var DefaultConfig = Config{
	Collection: "documents",
	TopK:       4,
}

// Store wraps chromem-go for vector storage.
// chromem-go is a pure Go, embedded vector database.
//
// Metadata values are stored as JSON and decoded on read, so numbers come
// back as float64. Values that are not valid JSON (written by other tools)
// are returned as raw strings.
type Store struct {
	db         *chromem.DB
	col        *chromem.Collection
	dimensions int
	config     Config
	logger     *zap.Logger
}

// Option configures the store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a chromem-backed store whose documents are embedded with embedder.
func New(embedder memory.Embedder, cfg Config, opts ...Option) (*Store, error) {
	if embedder == nil {
		return nil, ErrNoEmbedder
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultConfig.Collection
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultConfig.TopK
	}

	s := &Store{config: cfg, dimensions: embedder.Dimensions(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("chromem")

	if cfg.PersistPath != "" {
		db, err := chromem.NewPersistentDB(cfg.PersistPath, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("open persistent db: %w", err)
		}
		s.db = db
	} else {
		s.db = chromem.NewDB()
	}

	col, err := s.db.GetOrCreateCollection(cfg.Collection, nil, EmbeddingFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	s.col = col

	return s, nil
}

var _ memory.Store = (*Store)(nil)

// EmbeddingFunc adapts a memory.Embedder to chromem's embedding callback.
func EmbeddingFunc(e memory.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return e.Embed(ctx, text)
	}
}

// Add embeds and stores documents. Documents without an ID get a random one.
// Documents with empty content get a placeholder embedding, since chromem
// cannot embed them.
func (s *Store) Add(ctx context.Context, docs []core.Document) error {
	if len(docs) == 0 {
		return nil
	}

	stored := make([]chromem.Document, 0, len(docs))
	for _, doc := range docs {
		id := doc.ID
		if id == "" {
			id = uuid.New().String()
		}
		metadata, err := serializeMetadata(doc.Metadata)
		if err != nil {
			return fmt.Errorf("serialize metadata for %s: %w", id, err)
		}
		stored = append(stored, chromem.Document{
			ID:        id,
			Content:   doc.Content,
			Metadata:  metadata,
			Embedding: s.placeholderEmbedding(doc.Content),
		})
	}

	if err := s.col.AddDocuments(ctx, stored, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	s.logger.Debug("stored documents", zap.Int("count", len(stored)))
	return nil
}

// SimilaritySearch returns up to TopK documents most similar to query.
func (s *Store) SimilaritySearch(ctx context.Context, query string) ([]core.Document, error) {
	// chromem-go requires 0 < nResults <= collection size
	n := min(s.config.TopK, s.col.Count())
	if n == 0 {
		s.logger.Debug("collection is empty")
		return []core.Document{}, nil
	}

	results, err := s.col.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	docs := lo.FilterMap(results, func(r chromem.Result, _ int) (core.Document, bool) {
		if r.Similarity < s.config.MinSimilarity {
			return core.Document{}, false
		}
		return core.Document{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: deserializeMetadata(r.Metadata),
			Score:    r.Similarity,
		}, true
	})

	s.logger.Debug("similarity search",
		zap.Int("raw", len(results)),
		zap.Int("returned", len(docs)))
	return docs, nil
}

// Count returns the number of stored documents.
func (s *Store) Count() int {
	return s.col.Count()
}

// placeholderEmbedding returns a fixed unit vector for empty content and nil
// otherwise, leaving chromem to embed the text.
func (s *Store) placeholderEmbedding(content string) []float32 {
	if content != "" || s.dimensions <= 0 {
		return nil
	}
	vec := make([]float32, s.dimensions)
	vec[0] = 1
	return vec
}

// serializeMetadata flattens metadata to chromem's string map as JSON values.
func serializeMetadata(metadata map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal %q: %w", k, err)
		}
		out[k] = string(b)
	}
	return out, nil
}

func deserializeMetadata(metadata map[string]string) map[string]any {
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			out[k] = v
			continue
		}
		out[k] = decoded
	}
	return out
}
