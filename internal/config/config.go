package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig configures one model endpoint (embedding or inference).
type LLMConfig struct {
	Provider string `yaml:"provider"` // "openai" or "ollama"
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	KeyEnv   string `yaml:"key_env"`
	Model    string `yaml:"model"`
}

// ChunkingConfig drives semantic boundary detection.
type ChunkingConfig struct {
	BreakpointPercentile float64 `yaml:"breakpoint_percentile"`
	MinChunkSize         int     `yaml:"min_chunk_size"`
	OutputDir            string  `yaml:"output_dir"`
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	Backend    string         `yaml:"backend"` // "chromem" or "postgres"
	Path       string         `yaml:"path"`
	Collection string         `yaml:"collection"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds pgvector connection details.
type PostgresConfig struct {
	URL        string `yaml:"url"`
	Password   string `yaml:"password"`
	VectorSize int    `yaml:"vector_size"`
	Debug      bool   `yaml:"debug"`
}

// RAGConfig bounds retrieval and answer generation.
type RAGConfig struct {
	TopK                int     `yaml:"top_k"`
	SimilarityThreshold float32 `yaml:"similarity_threshold"`
	MaxTokens           int     `yaml:"max_tokens"`
}

type Config struct {
	KnowledgePath string         `yaml:"knowledge_path"`
	Chunking      ChunkingConfig `yaml:"chunking"`
	Store         StoreConfig    `yaml:"store"`
	EmbedLLM      LLMConfig      `yaml:"embed_llm"`
	InferLLM      LLMConfig      `yaml:"infer_llm"`
	RAG           RAGConfig      `yaml:"rag"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

func ApplyDefaults(cfg *Config) {
	if cfg.KnowledgePath == "" {
		cfg.KnowledgePath = "data/knowledge.txt"
	}
	if cfg.Chunking.BreakpointPercentile == 0 {
		cfg.Chunking.BreakpointPercentile = 10
	}
	if cfg.Chunking.MinChunkSize == 0 {
		cfg.Chunking.MinChunkSize = 1000
	}
	if cfg.Chunking.OutputDir == "" {
		cfg.Chunking.OutputDir = "chunking_results"
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "chromem"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "./chroma_db"
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = "document_chunks"
	}
	// matches text-embedding-3-small, the default embedding model
	if cfg.Store.Postgres.VectorSize == 0 {
		cfg.Store.Postgres.VectorSize = 1536
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 5
	}
	if cfg.RAG.SimilarityThreshold == 0 {
		cfg.RAG.SimilarityThreshold = 0.9
	}
	if cfg.RAG.MaxTokens == 0 {
		cfg.RAG.MaxTokens = 1024
	}
	resolveKey(&cfg.EmbedLLM)
	resolveKey(&cfg.InferLLM)
}

// resolveKey lets the API key come from the environment instead of the
// config file. key_env names the variable; OPENAI_API_KEY is the default.
func resolveKey(llm *LLMConfig) {
	if llm.Key != "" {
		return
	}
	env := llm.KeyEnv
	if env == "" {
		env = "OPENAI_API_KEY"
	}
	llm.Key = os.Getenv(env)
}
