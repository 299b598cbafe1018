// Package store owns the persistent embedding records and serves
// similarity queries over them.
package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tmc/langchaingo/embeddings"

	"semantic-rag/internal/config"
	"semantic-rag/internal/models"
)

// Stats describes the current state of a vector store.
type Stats struct {
	TotalChunks    int
	EmbeddingModel string
	Collection     string
	Location       string
}

// Store is the persistence boundary for embedded chunks.
type Store interface {
	// Ingest embeds and persists every chunk, stamping a zero-based
	// sequential chunk id and the embedding model id into metadata.
	// An empty batch is a no-op. At-least-once, not transactional.
	Ingest(ctx context.Context, chunks []models.Chunk) error

	// Search returns the k nearest records to the query, drops results
	// scoring below threshold, and deduplicates by content prefix.
	// Order is descending similarity.
	Search(ctx context.Context, query string, k int, threshold float32) ([]models.SearchResult, error)

	Stats(ctx context.Context) (Stats, error)

	// Clear deletes every record and reinitializes an empty collection.
	Clear(ctx context.Context) error

	// EmbeddingDimension embeds a canary string and returns the vector
	// length.
	EmbeddingDimension(ctx context.Context) (int, error)
}

// New builds the store backend selected by the config.
func New(cfg *config.StoreConfig, embedder embeddings.Embedder, modelID string) (Store, error) {
	switch cfg.Backend {
	case "postgres":
		return NewPostgresStore(cfg, embedder, modelID)
	case "chromem", "":
		return NewChromemStore(cfg.Path, cfg.Collection, embedder, modelID)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}

// filterResults applies the similarity threshold, then drops any result
// whose first DedupPrefixLen runes match an earlier one. The incoming
// order (descending similarity) is preserved.
func filterResults(results []models.SearchResult, threshold float32) []models.SearchResult {
	filtered := make([]models.SearchResult, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if r.Score < threshold {
			continue
		}
		key := dedupPrefix(r.Content)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		filtered = append(filtered, r)
	}
	return filtered
}

func dedupPrefix(content string) string {
	runes := []rune(content)
	if len(runes) > models.DedupPrefixLen {
		runes = runes[:models.DedupPrefixLen]
	}
	return string(runes)
}

// metadataToMap flattens a metadata record into the string map the
// chromem backend persists.
func metadataToMap(meta models.ChunkMetadata, chunkID int, modelID string) map[string]string {
	m := map[string]string{
		"source_section":  strconv.Itoa(meta.SourceSection),
		"chunk_index":     strconv.Itoa(meta.ChunkIndex),
		"chunk_size":      strconv.Itoa(meta.ChunkSize),
		"method":          meta.Method,
		"chunk_id":        strconv.Itoa(chunkID),
		"embedding_model": modelID,
	}
	for k, v := range meta.Extra {
		m[k] = v
	}
	return m
}

func metadataFromMap(m map[string]string) models.ChunkMetadata {
	meta := models.ChunkMetadata{Method: m["method"]}
	meta.SourceSection, _ = strconv.Atoi(m["source_section"])
	meta.ChunkIndex, _ = strconv.Atoi(m["chunk_index"])
	meta.ChunkSize, _ = strconv.Atoi(m["chunk_size"])
	for k, v := range m {
		switch k {
		case "source_section", "chunk_index", "chunk_size", "method":
		default:
			if meta.Extra == nil {
				meta.Extra = map[string]string{}
			}
			meta.Extra[k] = v
		}
	}
	return meta
}
