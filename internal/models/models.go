package models

import "unicode/utf8"

// Chunking method labels stored in chunk metadata.
const (
	MethodSemantic          = "semantic"
	MethodParagraphFallback = "paragraph_fallback"
)

// ChunkMetadata is the fixed-shape record attached to every chunk.
// Method-specific fields go into Extra.
type ChunkMetadata struct {
	SourceSection int               `json:"source_section"`
	ChunkIndex    int               `json:"chunk_index"`
	ChunkSize     int               `json:"chunk_size"`
	Method        string            `json:"method"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// Chunk is a contiguous span of semantically related source text.
type Chunk struct {
	Content string
	Meta    ChunkMetadata
}

// NewChunk builds a chunk with its metadata record. ChunkSize is the
// rune count of the content, matching how sizes are reported everywhere.
func NewChunk(content string, sourceSection, chunkIndex int, method string) Chunk {
	return Chunk{
		Content: content,
		Meta: ChunkMetadata{
			SourceSection: sourceSection,
			ChunkIndex:    chunkIndex,
			ChunkSize:     utf8.RuneCountInString(content),
			Method:        method,
		},
	}
}

// SearchResult is a transient retrieval hit. Score is a similarity in
// [0, 1], higher is more similar, for every store backend.
type SearchResult struct {
	ID      string
	Content string
	Meta    ChunkMetadata
	Score   float32
}
