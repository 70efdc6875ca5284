package chromem_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/nim-rag/core"
	"github.com/becomeliminal/nim-rag/memory/embedder/hash"
	"github.com/becomeliminal/nim-rag/memory/store/chromem"
)

func newStore(t *testing.T, cfg chromem.Config) *chromem.Store {
	t.Helper()
	s, err := chromem.New(hash.New(hash.DefaultDimensions), cfg)
	require.NoError(t, err)
	return s
}

func TestStore_EmptyCollection(t *testing.T) {
	s := newStore(t, chromem.Config{})

	docs, err := s.SimilaritySearch(context.Background(), "anything")
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestStore_AddAndSearch(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, chromem.Config{TopK: 2})

	err := s.Add(ctx, []core.Document{
		{ID: "london", Content: "Alice lives in London", Metadata: map[string]any{"role": "user", "turn": 3}},
		{ID: "tea", Content: "Bob drinks green tea every morning"},
		{ID: "revenue", Content: "Quarterly revenue grew strongly"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Count())

	docs, err := s.SimilaritySearch(ctx, "is Alice in London?")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "london", docs[0].ID)
	assert.Equal(t, "Alice lives in London", docs[0].Content)
	assert.Equal(t, "user", docs[0].Metadata["role"])
	assert.Equal(t, float64(3), docs[0].Metadata["turn"])
	assert.GreaterOrEqual(t, docs[0].Score, docs[1].Score)
}

func TestStore_TopKLargerThanCollection(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, chromem.Config{TopK: 10})

	require.NoError(t, s.Add(ctx, []core.Document{core.NewDocument("only one")}))

	docs, err := s.SimilaritySearch(ctx, "one")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.NotEmpty(t, docs[0].ID, "missing ids are generated")
}

func TestStore_MinSimilarity(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, chromem.Config{MinSimilarity: 0.99})

	require.NoError(t, s.Add(ctx, []core.Document{
		core.NewDocument("alpha beta gamma"),
		core.NewDocument("completely unrelated words here"),
	}))

	docs, err := s.SimilaritySearch(ctx, "alpha beta gamma")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "alpha beta gamma", docs[0].Content)
}

func TestStore_AddEmptyContent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, chromem.Config{TopK: 2})

	err := s.Add(ctx, []core.Document{
		{ID: "in", Content: "summarise the report"},
		{ID: "out", Content: "", Metadata: map[string]any{"stop_reason": "max_tokens"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count())

	docs, err := s.SimilaritySearch(ctx, "report")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestStore_MetadataTypes(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, chromem.Config{})

	require.NoError(t, s.Add(ctx, []core.Document{{
		ID:      "a",
		Content: "typed metadata",
		Metadata: map[string]any{
			"id":    "42",
			"count": 7,
			"final": true,
			"tags":  []string{"x", "y"},
		},
	}}))

	docs, err := s.SimilaritySearch(ctx, "typed metadata")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	md := docs[0].Metadata
	assert.Equal(t, "42", md["id"], "numeric-looking strings stay strings")
	assert.Equal(t, float64(7), md["count"])
	assert.Equal(t, true, md["final"])
	assert.Equal(t, []any{"x", "y"}, md["tags"])
}

func TestStore_AddNothing(t *testing.T) {
	s := newStore(t, chromem.Config{})

	assert.NoError(t, s.Add(context.Background(), nil))
	assert.Equal(t, 0, s.Count())
}

func TestStore_Persistent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s := newStore(t, chromem.Config{PersistPath: dir})
	require.NoError(t, s.Add(ctx, []core.Document{{ID: "a", Content: "persisted fact"}}))

	reopened := newStore(t, chromem.Config{PersistPath: dir})
	assert.Equal(t, 1, reopened.Count())
}

func TestNew_RequiresEmbedder(t *testing.T) {
	_, err := chromem.New(nil, chromem.Config{})
	assert.ErrorIs(t, err, chromem.ErrNoEmbedder)
}
