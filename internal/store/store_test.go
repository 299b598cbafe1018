package store

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"semantic-rag/internal/models"
)

// mockEmbedder produces deterministic vectors keyed on the first runes
// of the text, so two contents with the same prefix embed identically.
type mockEmbedder struct{}

func (m *mockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = embedDeterministic(text)
	}
	return vectors, nil
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return embedDeterministic(text), nil
}

func embedDeterministic(text string) []float32 {
	v := make([]float32, 8)
	for i, r := range text {
		if i >= models.DedupPrefixLen {
			break
		}
		v[i%8] += float32(r % 31)
	}
	v[0] += 1 // never the zero vector

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	s, err := NewChromemInMemory("test_chunks", &mockEmbedder{}, "mock-embedding-model")
	require.NoError(t, err)
	return s
}

func mkChunks(contents ...string) []models.Chunk {
	chunks := make([]models.Chunk, len(contents))
	for i, c := range contents {
		chunks[i] = models.NewChunk(c, 0, i, models.MethodSemantic)
	}
	return chunks
}

func TestIngestEmptyIsNoOp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Ingest(ctx, nil))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, stats.TotalChunks)
}

func TestIngestStatsClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Ingest(ctx, mkChunks("x", "y", "z")))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalChunks)
	require.Equal(t, "mock-embedding-model", stats.EmbeddingModel)
	require.Equal(t, "test_chunks", stats.Collection)

	require.NoError(t, s.Clear(ctx))

	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, stats.TotalChunks)
}

func TestSearchRejectsNonPositiveK(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Ingest(ctx, mkChunks("some content here")))

	_, err := s.Search(ctx, "anything", 0, 0)
	require.ErrorContains(t, err, "k must be positive, got 0")

	_, err = s.Search(ctx, "anything", -2, 0)
	require.ErrorContains(t, err, "got -2")
}

func TestSearchEmptyStore(t *testing.T) {
	s := newTestStore(t)
	results, err := s.Search(context.Background(), "anything", 5, 0)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSearchThresholdExcludesAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Ingest(ctx, mkChunks("some content here", "other content there")))

	// max possible similarity is 1.0
	results, err := s.Search(ctx, "unrelated query", 5, 1.1)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSearchRespectsThreshold(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Ingest(ctx, mkChunks("alpha topic sentence", "completely different words")))

	results, err := s.Search(ctx, "alpha topic sentence", 5, 0.5)
	require.NoError(t, err)
	for _, r := range results {
		require.GreaterOrEqual(t, r.Score, float32(0.5))
	}
}

func TestSearchDeduplicatesByPrefix(t *testing.T) {
	prefix := strings.Repeat("p", 120)
	a := prefix + " tail A with extra words"
	b := prefix + " tail B that diverges after rune 100"

	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Ingest(ctx, mkChunks(a, b, "unrelated filler content")))

	// k exceeding the record count is clamped, not an error
	results, err := s.Search(ctx, prefix, 5, -1)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, r := range results {
		runes := []rune(r.Content)
		if len(runes) > models.DedupPrefixLen {
			runes = runes[:models.DedupPrefixLen]
		}
		seen[string(runes)]++
	}
	for key, count := range seen {
		require.Equal(t, 1, count, "duplicate prefix returned twice: %q", key)
	}
	// the two duplicates collapse to one, the filler survives
	require.Len(t, results, 2)
}

func TestSearchMetadataRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chunk := models.NewChunk("metadata carrying chunk content", 3, 7, models.MethodParagraphFallback)
	chunk.Meta.Extra = map[string]string{"origin": "unit"}
	require.NoError(t, s.Ingest(ctx, []models.Chunk{chunk}))

	results, err := s.Search(ctx, "metadata carrying chunk content", 1, -1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	meta := results[0].Meta
	require.Equal(t, 3, meta.SourceSection)
	require.Equal(t, 7, meta.ChunkIndex)
	require.Equal(t, chunk.Meta.ChunkSize, meta.ChunkSize)
	require.Equal(t, models.MethodParagraphFallback, meta.Method)
	require.Equal(t, "unit", meta.Extra["origin"])
	require.Equal(t, "mock-embedding-model", meta.Extra["embedding_model"])
	require.Equal(t, "0", meta.Extra["chunk_id"])
}

func TestEmbeddingDimension(t *testing.T) {
	s := newTestStore(t)
	dim, err := s.EmbeddingDimension(context.Background())
	require.NoError(t, err)
	require.Equal(t, 8, dim)
}

func TestFilterResultsOrderAndThreshold(t *testing.T) {
	results := []models.SearchResult{
		{Content: "first", Score: 0.95},
		{Content: "second", Score: 0.8},
		{Content: "third", Score: 0.92},
	}
	filtered := filterResults(results, 0.9)
	require.Len(t, filtered, 2)
	require.Equal(t, "first", filtered[0].Content)
	require.Equal(t, "third", filtered[1].Content)
}

func TestFilterResultsFirstDuplicateWins(t *testing.T) {
	prefix := strings.Repeat("z", models.DedupPrefixLen)
	results := []models.SearchResult{
		{Content: prefix + " original", Score: 0.99},
		{Content: prefix + " copy", Score: 0.98},
	}
	filtered := filterResults(results, 0)
	require.Len(t, filtered, 1)
	require.Equal(t, prefix+" original", filtered[0].Content)
}

func TestChromemPersistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewChromemStore(dir, "persist_chunks", &mockEmbedder{}, "mock-embedding-model")
	require.NoError(t, err)
	require.NoError(t, s.Ingest(ctx, mkChunks("persisted chunk content")))

	// a fresh handle over the same directory sees the records
	reopened, err := NewChromemStore(dir, "persist_chunks", &mockEmbedder{}, "mock-embedding-model")
	require.NoError(t, err)
	stats, err := reopened.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalChunks)
}
