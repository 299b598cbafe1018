package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"semantic-rag/internal/chunker"
	"semantic-rag/internal/config"
	"semantic-rag/internal/embedding"
	"semantic-rag/internal/helper"
	"semantic-rag/internal/llm"
	"semantic-rag/internal/loader"
	"semantic-rag/internal/report"
	"semantic-rag/internal/store"
)

const (
	configFilePath = "./configs/config.yaml"
	chunkingLabel  = "Pure Semantic Chunking"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	_ = godotenv.Load()

	cfg := loadConfig()
	ctx := context.Background()

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	st, err := store.New(&cfg.Store, embedder, cfg.EmbedLLM.Model)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector store")
	}

	composer, err := llm.NewComposer(&cfg.InferLLM, cfg.RAG.MaxTokens)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing chat client")
	}

	stdin := bufio.NewScanner(os.Stdin)

	stats, err := st.Stats(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading store stats")
	}

	if stats.TotalChunks > 0 {
		fmt.Println("Using existing database. Starting search mode...")
		helper.PrettyPrint(stats)
	} else {
		fmt.Print("Database not found. Create new database? (y/N): ")
		if !stdin.Scan() {
			return
		}
		answer := strings.ToLower(strings.TrimSpace(stdin.Text()))
		if answer != "y" && answer != "yes" {
			fmt.Println("Goodbye!")
			return
		}
		buildDatabase(ctx, cfg, embedder, st)
	}

	runSearchMode(ctx, cfg, st, composer, stdin)
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configFilePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatal().Err(err).Msg("Error loading config")
		}
		log.Warn().Str("path", configFilePath).Msg("Config file not found, using defaults")
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
	}
	return cfg
}

// buildDatabase runs the one-time pipeline: load sections, chunk them,
// write the diagnostic report, ingest into the store. Any failure here
// is fatal to the run.
func buildDatabase(ctx context.Context, cfg *config.Config, embedder embeddings.Embedder, st store.Store) {
	sections, err := loader.LoadSections(cfg.KnowledgePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading knowledge file")
	}
	if len(sections) == 0 {
		log.Fatal().Str("path", cfg.KnowledgePath).Msg("No sections loaded from knowledge file")
	}

	chunks := chunker.New(embedder, &cfg.Chunking).ChunkAll(ctx, sections)
	if len(chunks) == 0 {
		log.Fatal().Msg("Chunking produced no chunks")
	}

	if _, _, err := report.WriteResults(chunks, cfg.Chunking.OutputDir, chunkingLabel); err != nil {
		log.Fatal().Err(err).Msg("Error writing chunking results")
	}

	if err := st.Ingest(ctx, chunks); err != nil {
		log.Fatal().Err(err).Msg("Error creating embeddings")
	}

	if dim, err := st.EmbeddingDimension(ctx); err != nil {
		log.Warn().Err(err).Msg("Could not determine embedding dimension")
	} else {
		log.Info().Int("dimension", dim).Msg("Embedding dimension")
	}

	fmt.Printf("Pipeline completed: %d chunks created\n", len(chunks))
}

func runSearchMode(ctx context.Context, cfg *config.Config, st store.Store, composer *llm.Composer, stdin *bufio.Scanner) {
	fmt.Println("\nInteractive Search Mode")
	fmt.Println(strings.Repeat("-", 30))

	for {
		fmt.Print("\nQuestion (or 'quit'): ")
		if !stdin.Scan() {
			break
		}
		question := strings.TrimSpace(stdin.Text())
		if question == "" {
			continue
		}
		if isExitCommand(question) {
			fmt.Println("Goodbye!")
			return
		}

		// widen recall with paraphrase questions; degrade to the
		// original question when expansion fails
		combined := question
		expansions, err := composer.ExpandQuery(ctx, question)
		if err != nil {
			log.Warn().Err(err).Msg("Query expansion failed, searching with original question only")
		} else if len(expansions) > 0 {
			fmt.Printf("\nSimilar questions:\n%s\n", strings.Join(expansions, "\n"))
			combined = question + "\n" + strings.Join(expansions, "\n")
		}

		fmt.Printf("\nSearching: %q\n", question)
		results, err := st.Search(ctx, combined, cfg.RAG.TopK, cfg.RAG.SimilarityThreshold)
		if err != nil {
			log.Error().Err(err).Msg("Search failed")
			continue
		}
		if len(results) == 0 {
			fmt.Println("No relevant chunks found.")
			continue
		}

		fmt.Printf("\nFound %d chunks:\n", len(results))
		for i, r := range results {
			fmt.Printf("\n--- Chunk %d ---\n", i+1)
			fmt.Printf("Content: %s\n", preview(r.Content, 1000))
			fmt.Printf("Similarity: %.3f\n", r.Score)
			fmt.Printf("Source section: %d\n", r.Meta.SourceSection)
			fmt.Printf("Size: %d chars\n", r.Meta.ChunkSize)
		}

		fmt.Println("\nGenerating answer, please wait...")
		answer, err := composer.ComposeAnswer(ctx, question, results)
		if err != nil {
			log.Error().Err(err).Msg("Answer generation failed")
			continue
		}

		fmt.Println(strings.Repeat("=", 60))
		fmt.Printf("Question: %s\n\n", question)
		fmt.Printf("Answer: %s\n", answer)
		fmt.Println(strings.Repeat("=", 60))
	}
}

func isExitCommand(input string) bool {
	switch strings.ToLower(input) {
	case "quit", "exit", "q":
		return true
	}
	return false
}

func preview(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
