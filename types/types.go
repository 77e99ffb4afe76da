package types

import (
	"time"

	"github.com/google/uuid"
)

// Chunk is one retrieval unit produced from a document's extracted text.
// Each chunk is embedded and persisted independently.
type Chunk struct {
	ID            uuid.UUID
	Name          string // source document name (filename)
	Index         int    // 1-based position within the source document
	Content       string
	OverlapPrefix int // runes at the head borrowed from the preceding chunk, 0 for the first
	Embedding     []float32
	CreatedAt     time.Time
}

// ChunkMetadata is stored alongside each chunk row. ChunkKey combines the
// filename and chunk index; two uploads sharing a filename produce colliding
// keys, which is kept as-is (the row id stays the unique handle).
type ChunkMetadata struct {
	Filename      string `json:"filename"`
	ChunkIndex    int    `json:"chunkIndex"`
	ChunkKey      string `json:"chunkKey"`
	OverlapPrefix int    `json:"overlapPrefix,omitempty"`
}

// StoredChunk is a listing row as returned by the store.
type StoredChunk struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Content   string        `json:"content"`
	Metadata  ChunkMetadata `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}

// RetrievalResult is a ranked similarity match for a query. Score is cosine
// similarity, higher is more relevant.
type RetrievalResult struct {
	ID    uuid.UUID `json:"id"`
	Text  string    `json:"text"`
	Score float64   `json:"score"`
}

// Source attributes a part of an answer to a stored chunk.
type Source struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
	Preview string  `json:"preview"`
}

// RagAnswer is the synthesized response to one question.
type RagAnswer struct {
	Answer         string   `json:"answer"`
	Sources        []Source `json:"sources"`
	ResponseTimeMs int64    `json:"response_time_ms"`
	TokensUsed     int      `json:"tokens_used,omitempty"`
}

// StoreStats summarizes the persisted corpus and its vector index.
type StoreStats struct {
	Total       int    `json:"total"`
	VectorCount int    `json:"vector_count"`
	Indexed     bool   `json:"indexed"`
	Status      string `json:"status"`
}
