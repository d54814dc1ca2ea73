package service

import (
	"context"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/pkg/retrieval"
	"rag-chat-be/pkg/store"
)

type ISearchService interface {
	Search(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error)
}

type searchService struct {
	coordinator *retrieval.Coordinator
	logger      logger.ILogger
}

func NewSearchService(coordinator *retrieval.Coordinator, log logger.ILogger) ISearchService {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &searchService{
		coordinator: coordinator,
		logger:      log,
	}
}

func (s *searchService) Search(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = s.coordinator.TopK()
	}

	var results []store.RetrievedResult
	backend := store.Backend(req.SearchType)

	if req.SearchType == "" {
		// No explicit backend: walk the configured fallback chain.
		results = s.coordinator.Retrieve(ctx, req.Query, req.Filter)
		if len(results) > topK {
			results = results[:topK]
		}
		if len(results) > 0 {
			backend = results[0].Backend
		} else {
			backend = store.BackendFallback
		}
	} else {
		strategy, ok := s.coordinator.Strategy(backend)
		if !ok {
			// The backend exists but is not configured, e.g. vector search
			// without an embedding provider.
			s.logger.Warn("search", "Requested backend unavailable", map[string]interface{}{
				"backend": req.SearchType,
			})
			return &dto.SearchResponse{Results: []dto.SearchResultItem{}, Backend: string(store.BackendFallback)}, nil
		}
		var err error
		results, err = strategy.Attempt(ctx, req.Query, topK, req.Filter)
		if err != nil {
			return nil, err
		}
	}

	items := make([]dto.SearchResultItem, 0, len(results))
	for _, r := range results {
		items = append(items, dto.SearchResultItem{
			ChunkId:    r.ChunkId,
			DocumentId: r.DocumentId,
			Content:    r.Content,
			Score:      r.Score,
			Metadata:   r.Metadata,
		})
	}

	return &dto.SearchResponse{
		Results: items,
		Backend: string(backend),
	}, nil
}
