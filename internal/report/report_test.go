package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"semantic-rag/internal/models"
)

func sampleChunks() []models.Chunk {
	return []models.Chunk{
		models.NewChunk("short chunk", 0, 0, models.MethodSemantic),
		models.NewChunk("a somewhat longer chunk of text", 0, 1, models.MethodSemantic),
		models.NewChunk("fallback piece", 1, 0, models.MethodParagraphFallback),
	}
}

func TestAnalyze(t *testing.T) {
	q := Analyze(sampleChunks())
	require.Equal(t, 3, q.TotalChunks)
	require.Equal(t, 11, q.MinSize)
	require.Equal(t, 31, q.MaxSize)
	require.InDelta(t, (11+31+14)/3.0, q.AvgSize, 1e-9)
	require.Equal(t, 2, q.Methods[models.MethodSemantic])
	require.Equal(t, 1, q.Methods[models.MethodParagraphFallback])
}

func TestAnalyzeEmpty(t *testing.T) {
	q := Analyze(nil)
	require.Equal(t, 0, q.TotalChunks)
	require.Equal(t, 0, q.MinSize)
	require.Equal(t, 0, q.MaxSize)
}

func TestWriteResults(t *testing.T) {
	dir := t.TempDir()

	summaryFile, chunksDir, err := WriteResults(sampleChunks(), dir, "Pure Semantic Chunking")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "pure_semantic_chunking_summary.txt"), summaryFile)
	require.Equal(t, filepath.Join(dir, "pure_semantic_chunking_chunks"), chunksDir)

	summary, err := os.ReadFile(summaryFile)
	require.NoError(t, err)
	require.Contains(t, string(summary), "Total chunks: 3")
	require.Contains(t, string(summary), "Chunking method distribution:")
	require.Contains(t, string(summary), "fallback piece")

	entries, err := os.ReadDir(chunksDir)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	first, err := os.ReadFile(filepath.Join(chunksDir, "chunk_001.txt"))
	require.NoError(t, err)
	require.Contains(t, string(first), "Chunk 1")
	require.Contains(t, string(first), "Size: 11 characters")
	require.Contains(t, string(first), "short chunk")
}
