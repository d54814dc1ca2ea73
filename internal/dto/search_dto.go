package dto

import (
	"github.com/google/uuid"
)

type SearchRequest struct {
	Query      string            `json:"query" validate:"required"`
	TopK       int               `json:"top_k" validate:"omitempty,min=1,max=50"`
	SearchType string            `json:"search_type" validate:"omitempty,oneof=vector hybrid keyword"`
	Filter     map[string]string `json:"filter"`
}

type SearchResultItem struct {
	ChunkId    uuid.UUID         `json:"chunk_id"`
	DocumentId uuid.UUID         `json:"document_id"`
	Content    string            `json:"content"`
	Score      float64           `json:"score"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type SearchResponse struct {
	Results []SearchResultItem `json:"results"`
	Backend string             `json:"backend"`
}
