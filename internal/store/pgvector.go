package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"semantic-rag/internal/config"
	"semantic-rag/internal/models"
)

// chunkEmbedding is the pgvector row for one embedded chunk. Similarity
// search relies on the pgvector extension's cosine distance operator.
// The table is created by raw DDL so the vector dimension follows the
// configured embedding model.
type chunkEmbedding struct {
	bun.BaseModel `bun:"table:chunk_embeddings,alias:ce"`
	ID            string    `bun:"id,pk"`
	ChunkID       int       `bun:"chunk_id,notnull"`
	Content       string    `bun:"content,notnull"`
	Embedding     []float32 `bun:"embedding,notnull"`
	Metadata      string    `bun:"metadata,type:jsonb"`
	Score         float32   `bun:"score,scanonly"`
}

// PostgresStore persists embedding records in a pgvector table.
type PostgresStore struct {
	db         *bun.DB
	embedder   embeddings.Embedder
	modelID    string
	location   string
	vectorSize int
}

func NewPostgresStore(cfg *config.StoreConfig, embedder embeddings.Embedder, modelID string) (*PostgresStore, error) {
	dsn := cfg.Postgres.URL + "?sslmode=disable"
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Postgres.Password)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Postgres.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	s := &PostgresStore{
		db:         db,
		embedder:   embedder,
		modelID:    modelID,
		location:   cfg.Postgres.URL,
		vectorSize: cfg.Postgres.VectorSize,
	}
	if err := s.initTable(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableDDL(s.vectorSize)); err != nil {
		return fmt.Errorf("failed to initialize embeddings table: %w", err)
	}
	return nil
}

// createTableDDL builds the embeddings table with the configured vector
// dimension. pgvector rejects inserts whose dimension differs from the
// column's, so the size must match the embedding model.
func createTableDDL(vectorSize int) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunk_embeddings (
	id text PRIMARY KEY,
	chunk_id integer NOT NULL,
	content text NOT NULL,
	embedding vector(%d) NOT NULL,
	metadata jsonb
)`, vectorSize)
}

func (s *PostgresStore) Ingest(ctx context.Context, chunks []models.Chunk) error {
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

	rows := make([]chunkEmbedding, len(chunks))
	for i, c := range chunks {
		meta, err := json.Marshal(metadataToMap(c.Meta, i, s.modelID))
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		rows[i] = chunkEmbedding{
			ID:        fmt.Sprintf("%d-%d", c.Meta.SourceSection, c.Meta.ChunkIndex),
			ChunkID:   i,
			Content:   c.Content,
			Embedding: vectors[i],
			Metadata:  string(meta),
		}
	}

	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("failed to store embeddings: %w", err)
	}
	log.Info().Int("chunks", len(rows)).Msg("Ingested chunks")
	return nil
}

func (s *PostgresStore) Search(ctx context.Context, query string, k int, threshold float32) ([]models.SearchResult, error) {
	queryEmbedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	vec := vectorLiteral(queryEmbedding)
	var rows []chunkEmbedding
	err = s.db.NewSelect().
		Model(&rows).
		Column("id", "chunk_id", "content", "metadata").
		ColumnExpr("1 - (embedding <=> ?::vector) AS score", vec).
		OrderExpr("embedding <=> ?::vector", vec).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search embeddings: %w", err)
	}

	hits := make([]models.SearchResult, 0, len(rows))
	for _, row := range rows {
		var m map[string]string
		if err := json.Unmarshal([]byte(row.Metadata), &m); err != nil {
			m = map[string]string{}
		}
		hits = append(hits, models.SearchResult{
			ID:      row.ID,
			Content: row.Content,
			Meta:    metadataFromMap(m),
			Score:   row.Score,
		})
	}
	return filterResults(hits, threshold), nil
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	count, err := s.db.NewSelect().Model((*chunkEmbedding)(nil)).Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return Stats{
		TotalChunks:    count,
		EmbeddingModel: s.modelID,
		Collection:     "chunk_embeddings",
		Location:       s.location,
	}, nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.db.NewDropTable().Model((*chunkEmbedding)(nil)).IfExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to drop embeddings table: %w", err)
	}
	return s.initTable(ctx)
}

func (s *PostgresStore) EmbeddingDimension(ctx context.Context) (int, error) {
	vec, err := s.embedder.EmbedQuery(ctx, models.DimensionCanary)
	if err != nil {
		return 0, fmt.Errorf("failed to embed canary: %w", err)
	}
	return len(vec), nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// vectorLiteral renders a pgvector input literal like [0.1,0.2].
func vectorLiteral(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
