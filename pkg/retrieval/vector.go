package retrieval

import (
	"context"
	"fmt"

	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/pkg/embedding"
	"rag-chat-be/pkg/store"
)

// VectorStrategy embeds the query and runs a cosine similarity scan.
type VectorStrategy struct {
	provider  embedding.EmbeddingProvider
	repo      contract.ChunkEmbeddingRepository
	threshold float64
}

func NewVectorStrategy(provider embedding.EmbeddingProvider, repo contract.ChunkEmbeddingRepository, threshold float64) *VectorStrategy {
	return &VectorStrategy{
		provider:  provider,
		repo:      repo,
		threshold: threshold,
	}
}

func (s *VectorStrategy) Name() store.Backend {
	return store.BackendVector
}

func (s *VectorStrategy) Attempt(ctx context.Context, query string, topK int, filter map[string]string) ([]store.RetrievedResult, error) {
	resp, err := s.provider.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	scored, err := s.repo.SearchSimilarWithScore(ctx, resp.Embedding.Values, topK, filter, s.threshold)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	return toResults(scored, s.Name()), nil
}
