package contract

import (
	"context"

	"rag-chat-be/internal/entity"

	"github.com/google/uuid"
)

// ScoredChunkEmbedding wraps ChunkEmbedding with its retrieval score
type ScoredChunkEmbedding struct {
	Embedding *entity.ChunkEmbedding
	Score     float64 // 0.0 to 1.0 (1.0 = identical)
}

type ChunkEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.ChunkEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*entity.ChunkEmbedding) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	CountByDocumentId(ctx context.Context, documentId uuid.UUID) (int64, error)
	// SearchSimilarWithScore runs a cosine similarity scan, filtered by threshold.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, filter map[string]string, threshold float64) ([]*ScoredChunkEmbedding, error)
	// KeywordSearch runs a Postgres full-text scan ranked by ts_rank.
	KeywordSearch(ctx context.Context, query string, limit int, filter map[string]string) ([]*ScoredChunkEmbedding, error)
	// HybridSearch blends cosine similarity and ts_rank in a single query.
	HybridSearch(ctx context.Context, embedding []float32, query string, limit int, filter map[string]string) ([]*ScoredChunkEmbedding, error)
}
