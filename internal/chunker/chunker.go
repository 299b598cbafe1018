package chunker

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"semantic-rag/internal/config"
	"semantic-rag/internal/loader"
	"semantic-rag/internal/models"
)

var sentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// SemanticChunker partitions text at points of maximal semantic
// discontinuity between adjacent sentences.
type SemanticChunker struct {
	embedder             embeddings.Embedder
	breakpointPercentile float64
	minChunkSize         int
}

func New(embedder embeddings.Embedder, cfg *config.ChunkingConfig) *SemanticChunker {
	percentile := cfg.BreakpointPercentile
	if percentile <= 0 || percentile > 100 {
		percentile = 10
	}
	minSize := cfg.MinChunkSize
	if minSize <= 0 {
		minSize = 1000
	}
	return &SemanticChunker{
		embedder:             embedder,
		breakpointPercentile: percentile,
		minChunkSize:         minSize,
	}
}

// Chunk splits one section into semantically coherent chunks. Every
// sentence is embedded, the cosine distance between each adjacent pair
// is computed, and a boundary is placed wherever the distance exceeds
// the configured percentile of the distance distribution. Spans smaller
// than the minimum size are merged into their neighbors. The chunks
// cover the section exactly once, modulo whitespace trimming.
func (c *SemanticChunker) Chunk(ctx context.Context, text string) ([]string, error) {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil, nil
	}
	if len(sentences) == 1 {
		return []string{sentences[0]}, nil
	}

	vectors, err := c.embedder.EmbedDocuments(ctx, sentences)
	if err != nil {
		return nil, fmt.Errorf("failed to embed sentences: %w", err)
	}
	if len(vectors) != len(sentences) {
		return nil, fmt.Errorf("embedding count mismatch: %d sentences, %d vectors", len(sentences), len(vectors))
	}

	distances := make([]float64, len(sentences)-1)
	for i := range distances {
		distances[i] = 1 - cosineSimilarity(vectors[i], vectors[i+1])
	}

	threshold := percentile(distances, c.breakpointPercentile)

	var spans []string
	var current []string
	for i, sentence := range sentences {
		current = append(current, sentence)
		if i < len(distances) && distances[i] > threshold {
			spans = append(spans, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		spans = append(spans, strings.Join(current, " "))
	}

	return c.mergeSmallSpans(spans), nil
}

// ChunkAll runs the semantic chunker over every section. A section
// whose embedding or chunking fails falls back to a blank-line
// paragraph split; one bad section never aborts the batch.
func (c *SemanticChunker) ChunkAll(ctx context.Context, sections []string) []models.Chunk {
	var chunks []models.Chunk
	for i, section := range sections {
		contents, err := c.Chunk(ctx, section)
		method := models.MethodSemantic
		if err != nil {
			log.Warn().Err(err).Int("section", i).Msg("Semantic chunking failed, falling back to paragraph split")
			contents = loader.SplitSections(section)
			method = models.MethodParagraphFallback
		}
		for j, content := range contents {
			chunks = append(chunks, models.NewChunk(content, i, j, method))
		}
	}
	log.Info().Int("chunks", len(chunks)).Int("sections", len(sections)).Msg("Chunking complete")
	return chunks
}

// mergeSmallSpans folds spans below the minimum size into the span
// that follows; an undersized trailing remainder merges backward.
func (c *SemanticChunker) mergeSmallSpans(spans []string) []string {
	var chunks []string
	var pending string
	for _, span := range spans {
		if pending != "" {
			span = pending + " " + span
			pending = ""
		}
		if utf8.RuneCountInString(span) < c.minChunkSize {
			pending = span
			continue
		}
		chunks = append(chunks, strings.TrimSpace(span))
	}
	if pending != "" {
		if len(chunks) > 0 {
			chunks[len(chunks)-1] = chunks[len(chunks)-1] + " " + strings.TrimSpace(pending)
		} else {
			chunks = append(chunks, strings.TrimSpace(pending))
		}
	}
	return chunks
}

// SplitSentences splits text into trimmed sentence units. Trailing text
// without terminal punctuation becomes the final unit.
func SplitSentences(text string) []string {
	var sentences []string
	locs := sentenceRe.FindAllStringIndex(text, -1)
	end := 0
	for _, loc := range locs {
		s := strings.TrimSpace(text[loc[0]:loc[1]])
		if s != "" {
			sentences = append(sentences, s)
		}
		end = loc[1]
	}
	if tail := strings.TrimSpace(text[end:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// percentile computes the p-th percentile of values using linear
// interpolation between ranks.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
