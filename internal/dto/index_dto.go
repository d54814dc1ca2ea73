package dto

import (
	"time"

	"github.com/google/uuid"
)

type IndexTextRequest struct {
	Title    string            `json:"title" validate:"required"`
	Content  string            `json:"content" validate:"required"`
	Source   string            `json:"source"`
	Metadata map[string]string `json:"metadata"`
}

type IndexResponse struct {
	DocumentId uuid.UUID `json:"document_id"`
	Status     string    `json:"status"`
}

type ListDocumentsQuery struct {
	Source string `query:"source"`
	Page   int    `query:"page" validate:"omitempty,min=1"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

type DocumentResponse struct {
	Id         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Source     string     `json:"source"`
	ChunkCount int64      `json:"chunk_count"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

type ListDocumentsResponse struct {
	Documents []*DocumentResponse `json:"documents"`
	Total     int64               `json:"total"`
}

// PublishIndexDocumentMessage is the payload queued for the embedding
// consumer after a document row is written.
type PublishIndexDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
