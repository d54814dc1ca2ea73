package implementation

import (
	"context"

	"rag-chat-be/internal/entity"
	"rag-chat-be/internal/mapper"
	"rag-chat-be/internal/model"
	"rag-chat-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// hybridVectorWeight and hybridKeywordWeight control the blended score in
// HybridSearch. ts_rank is clamped to 1 so both halves share the same scale.
const (
	hybridVectorWeight  = 0.7
	hybridKeywordWeight = 0.3
)

type ChunkEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChunkEmbeddingMapper
}

func NewChunkEmbeddingRepository(db *gorm.DB) contract.ChunkEmbeddingRepository {
	return &ChunkEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewChunkEmbeddingMapper(),
	}
}

func (r *ChunkEmbeddingRepositoryImpl) Create(ctx context.Context, embedding *entity.ChunkEmbedding) error {
	m := r.mapper.ToModel(embedding)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*embedding = *r.mapper.ToEntity(m)
	return nil
}

func (r *ChunkEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.ChunkEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	models := r.mapper.ToModels(embeddings)

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	// Update IDs back to entities
	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *ChunkEmbeddingRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ChunkEmbedding{}, id).Error
}

func (r *ChunkEmbeddingRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentId).Delete(&model.ChunkEmbedding{}).Error
}

func (r *ChunkEmbeddingRepositoryImpl) CountByDocumentId(ctx context.Context, documentId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ChunkEmbedding{}).
		Where("document_id = ?", documentId).
		Count(&count).Error
	return count, err
}

func (r *ChunkEmbeddingRepositoryImpl) applyMetadataFilter(db *gorm.DB, filter map[string]string) *gorm.DB {
	for key, value := range filter {
		db = db.Where("chunk_embeddings.metadata ->> ? = ?", key, value)
	}
	return db
}

type scoredRow struct {
	model.ChunkEmbedding
	Score float64
}

func (r *ChunkEmbeddingRepositoryImpl) toScored(rows []scoredRow) []*contract.ScoredChunkEmbedding {
	scored := make([]*contract.ScoredChunkEmbedding, len(rows))
	for i, row := range rows {
		e := row.ChunkEmbedding
		scored[i] = &contract.ScoredChunkEmbedding{
			Embedding: r.mapper.ToEntity(&e),
			Score:     row.Score,
		}
	}
	return scored
}

func (r *ChunkEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, filter map[string]string, threshold float64) ([]*contract.ScoredChunkEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (embedding_value <=> query_vector) recovers the similarity.
	var rows []scoredRow
	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("chunk_embeddings").
		Select("chunk_embeddings.*, 1 - (embedding_value <=> ?) as score", queryVector).
		Where("chunk_embeddings.deleted_at IS NULL").
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold)
	query = r.applyMetadataFilter(query, filter)

	err := query.
		Order("score DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return r.toScored(rows), nil
}

func (r *ChunkEmbeddingRepositoryImpl) KeywordSearch(ctx context.Context, searchQuery string, limit int, filter map[string]string) ([]*contract.ScoredChunkEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}

	// 'simple' config avoids language-specific stemming so CJK queries
	// degrade to exact token matching instead of empty results.
	var rows []scoredRow

	query := r.db.WithContext(ctx).
		Table("chunk_embeddings").
		Select("chunk_embeddings.*, ts_rank(to_tsvector('simple', content), plainto_tsquery('simple', ?)) as score", searchQuery).
		Where("chunk_embeddings.deleted_at IS NULL").
		Where("to_tsvector('simple', content) @@ plainto_tsquery('simple', ?)", searchQuery)
	query = r.applyMetadataFilter(query, filter)

	err := query.
		Order("score DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return r.toScored(rows), nil
}

func (r *ChunkEmbeddingRepositoryImpl) HybridSearch(ctx context.Context, embedding []float32, searchQuery string, limit int, filter map[string]string) ([]*contract.ScoredChunkEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}

	var rows []scoredRow
	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("chunk_embeddings").
		Select(
			"chunk_embeddings.*, "+
				"? * (1 - (embedding_value <=> ?)) + "+
				"? * LEAST(ts_rank(to_tsvector('simple', content), plainto_tsquery('simple', ?)), 1.0) as score",
			hybridVectorWeight, queryVector, hybridKeywordWeight, searchQuery,
		).
		Where("chunk_embeddings.deleted_at IS NULL")
	query = r.applyMetadataFilter(query, filter)

	err := query.
		Order("score DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return r.toScored(rows), nil
}
