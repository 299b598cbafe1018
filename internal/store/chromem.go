package store

import (
	"context"
	"fmt"
	"runtime"

	chromem "github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"semantic-rag/internal/helper"
	"semantic-rag/internal/models"
)

const chromemCompress = false

// ChromemStore persists embedding records in a chromem-go collection.
type ChromemStore struct {
	db             *chromem.DB
	collection     *chromem.Collection
	embedder       embeddings.Embedder
	path           string
	collectionName string
	modelID        string
}

// NewChromemStore opens (or creates) a persistent chromem database at
// path and binds the named collection.
func NewChromemStore(path, collectionName string, embedder embeddings.Embedder, modelID string) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(path, chromemCompress)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	return newChromemStore(db, path, collectionName, embedder, modelID)
}

// NewChromemInMemory builds a volatile store. Used by tests and dry runs.
func NewChromemInMemory(collectionName string, embedder embeddings.Embedder, modelID string) (*ChromemStore, error) {
	return newChromemStore(chromem.NewDB(), ":memory:", collectionName, embedder, modelID)
}

func newChromemStore(db *chromem.DB, path, collectionName string, embedder embeddings.Embedder, modelID string) (*ChromemStore, error) {
	s := &ChromemStore{
		db:             db,
		embedder:       embedder,
		path:           path,
		collectionName: collectionName,
		modelID:        modelID,
	}
	collection, err := db.GetOrCreateCollection(collectionName, nil, s.embeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	s.collection = collection
	return s, nil
}

func (s *ChromemStore) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedQuery(ctx, text)
	}
}

func (s *ChromemStore) Ingest(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		log.Info().Msg("No chunks to ingest")
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		id, err := helper.GenerateUUID()
		if err != nil {
			return err
		}
		docs[i] = chromem.Document{
			ID:        id,
			Content:   c.Content,
			Metadata:  metadataToMap(c.Meta, i, s.modelID),
			Embedding: vectors[i],
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	log.Info().Int("chunks", len(docs)).Str("collection", s.collectionName).Msg("Ingested chunks")
	return nil
}

func (s *ChromemStore) Search(ctx context.Context, query string, k int, threshold float32) ([]models.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	// chromem requires nResults <= document count
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := s.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	hits := make([]models.SearchResult, len(results))
	for i, r := range results {
		hits[i] = models.SearchResult{
			ID:      r.ID,
			Content: r.Content,
			Meta:    metadataFromMap(r.Metadata),
			Score:   r.Similarity,
		}
	}
	return filterResults(hits, threshold), nil
}

func (s *ChromemStore) Stats(ctx context.Context) (Stats, error) {
	return Stats{
		TotalChunks:    s.collection.Count(),
		EmbeddingModel: s.modelID,
		Collection:     s.collectionName,
		Location:       s.path,
	}, nil
}

func (s *ChromemStore) Clear(ctx context.Context) error {
	if err := s.db.DeleteCollection(s.collectionName); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	collection, err := s.db.GetOrCreateCollection(s.collectionName, nil, s.embeddingFunc())
	if err != nil {
		return fmt.Errorf("failed to recreate collection: %w", err)
	}
	s.collection = collection
	log.Info().Str("collection", s.collectionName).Msg("Cleared vector store")
	return nil
}

func (s *ChromemStore) EmbeddingDimension(ctx context.Context) (int, error) {
	vec, err := s.embedder.EmbedQuery(ctx, models.DimensionCanary)
	if err != nil {
		return 0, fmt.Errorf("failed to embed canary: %w", err)
	}
	return len(vec), nil
}
