package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"semantic-rag/internal/helper"
	"semantic-rag/internal/models"
)

// Quality holds size statistics over a chunk batch.
type Quality struct {
	TotalChunks int
	AvgSize     float64
	MinSize     int
	MaxSize     int
	Methods     map[string]int
}

// Analyze computes size statistics and the chunking-method distribution.
func Analyze(chunks []models.Chunk) Quality {
	q := Quality{Methods: map[string]int{}}
	q.TotalChunks = len(chunks)
	if len(chunks) == 0 {
		return q
	}

	total := 0
	q.MinSize = chunks[0].Meta.ChunkSize
	for _, c := range chunks {
		size := c.Meta.ChunkSize
		total += size
		if size < q.MinSize {
			q.MinSize = size
		}
		if size > q.MaxSize {
			q.MaxSize = size
		}
		q.Methods[c.Meta.Method]++
	}
	q.AvgSize = float64(total) / float64(len(chunks))

	log.Info().
		Int("chunks", q.TotalChunks).
		Float64("avg_size", q.AvgSize).
		Int("min_size", q.MinSize).
		Int("max_size", q.MaxSize).
		Msg("Chunk quality")
	return q
}

// WriteResults writes a human-readable summary file and one file per
// chunk under outputDir. The files are diagnostic only; nothing reads
// them back.
func WriteResults(chunks []models.Chunk, outputDir, label string) (string, string, error) {
	if err := helper.CreateFolder(outputDir); err != nil {
		return "", "", fmt.Errorf("failed to create output dir: %w", err)
	}

	q := Analyze(chunks)
	slug := strings.ReplaceAll(strings.ToLower(label), " ", "_")

	summaryFile := filepath.Join(outputDir, slug+"_summary.txt")
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s Summary ===\n", label)
	fmt.Fprintf(&b, "Total chunks: %d\n", q.TotalChunks)
	fmt.Fprintf(&b, "Average chunk size: %.1f characters\n", q.AvgSize)
	fmt.Fprintf(&b, "Min chunk size: %d characters\n", q.MinSize)
	fmt.Fprintf(&b, "Max chunk size: %d characters\n\n", q.MaxSize)

	if len(q.Methods) > 0 {
		b.WriteString("Chunking method distribution:\n")
		for method, count := range q.Methods {
			fmt.Fprintf(&b, "  %s: %d chunks\n", method, count)
		}
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	for i, chunk := range chunks {
		fmt.Fprintf(&b, "--- Chunk %d ---\n", i+1)
		fmt.Fprintf(&b, "Size: %d characters\n", chunk.Meta.ChunkSize)
		fmt.Fprintf(&b, "Source section: %d\n", chunk.Meta.SourceSection)
		fmt.Fprintf(&b, "Chunk index: %d\n", chunk.Meta.ChunkIndex)
		fmt.Fprintf(&b, "Method: %s\n", chunk.Meta.Method)
		b.WriteString("\nContent:\n")
		b.WriteString(chunk.Content)
		b.WriteString("\n\n" + strings.Repeat("=", 50) + "\n\n")
	}

	if err := os.WriteFile(summaryFile, []byte(b.String()), 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write summary file: %w", err)
	}

	chunksDir := filepath.Join(outputDir, slug+"_chunks")
	if err := helper.CreateFolder(chunksDir); err != nil {
		return "", "", fmt.Errorf("failed to create chunks dir: %w", err)
	}

	for i, chunk := range chunks {
		var cb strings.Builder
		fmt.Fprintf(&cb, "Chunk %d\n", i+1)
		fmt.Fprintf(&cb, "Size: %d characters\n", chunk.Meta.ChunkSize)
		fmt.Fprintf(&cb, "Source: %d\n", chunk.Meta.SourceSection)
		fmt.Fprintf(&cb, "Method: %s\n", chunk.Meta.Method)
		cb.WriteString(strings.Repeat("-", 30) + "\n\n")
		cb.WriteString(chunk.Content)

		chunkFile := filepath.Join(chunksDir, fmt.Sprintf("chunk_%03d.txt", i+1))
		if err := os.WriteFile(chunkFile, []byte(cb.String()), 0o644); err != nil {
			return "", "", fmt.Errorf("failed to write chunk file: %w", err)
		}
	}

	log.Info().Str("summary", summaryFile).Str("chunks_dir", chunksDir).Msg("Saved chunking results")
	return summaryFile, chunksDir, nil
}
