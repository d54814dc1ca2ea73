package retrieval

import (
	"context"
	"fmt"

	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/pkg/embedding"
	"rag-chat-be/pkg/store"
)

// HybridStrategy blends cosine similarity and full-text rank in one query.
// Both scores come from the same backend, so results stay comparable.
type HybridStrategy struct {
	provider embedding.EmbeddingProvider
	repo     contract.ChunkEmbeddingRepository
}

func NewHybridStrategy(provider embedding.EmbeddingProvider, repo contract.ChunkEmbeddingRepository) *HybridStrategy {
	return &HybridStrategy{
		provider: provider,
		repo:     repo,
	}
}

func (s *HybridStrategy) Name() store.Backend {
	return store.BackendHybrid
}

func (s *HybridStrategy) Attempt(ctx context.Context, query string, topK int, filter map[string]string) ([]store.RetrievedResult, error) {
	resp, err := s.provider.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	scored, err := s.repo.HybridSearch(ctx, resp.Embedding.Values, query, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("hybrid search failed: %w", err)
	}

	return toResults(scored, s.Name()), nil
}
