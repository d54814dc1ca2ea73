package store

import (
	"github.com/google/uuid"
)

// Backend identifies which retrieval strategy produced a result. Scores from
// different backends are not comparable with each other.
type Backend string

const (
	BackendVector   Backend = "vector"
	BackendHybrid   Backend = "hybrid"
	BackendKeyword  Backend = "keyword"
	BackendFallback Backend = "fallback"
)

// Document is a raw text submitted for indexing. It is immutable once chunked.
type Document struct {
	Id       uuid.UUID
	Title    string
	Source   string
	Content  string
	Metadata map[string]string
}

// Chunk is a bounded, overlapping substring of a document used as a
// retrieval unit. Chunks from one document are produced in document order.
type Chunk struct {
	Id         uuid.UUID
	DocumentId uuid.UUID
	Content    string
	Index      int
	Metadata   map[string]string
}

// RetrievedResult is a normalized search hit, valid for one request only.
type RetrievedResult struct {
	ChunkId    uuid.UUID
	DocumentId uuid.UUID
	Content    string
	Score      float64
	Backend    Backend
	Metadata   map[string]string
}

// Source is the caller-facing citation derived from a retrieved result.
type Source struct {
	Title     string  `json:"title"`
	Source    string  `json:"source"`
	Relevance float64 `json:"relevance"`
}
