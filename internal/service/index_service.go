package service

import (
	"context"
	"encoding/json"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/entity"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/pkg/serverutils"
	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

const sourceInline = "inline"

const defaultPageSize = 20

type IIndexService interface {
	IndexText(ctx context.Context, req *dto.IndexTextRequest) (*dto.IndexResponse, error)
	IndexFile(ctx context.Context, fileName string, data []byte) (*dto.IndexResponse, error)
	ListDocuments(ctx context.Context, query *dto.ListDocumentsQuery) (*dto.ListDocumentsResponse, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
}

type indexService struct {
	documentRepo     contract.DocumentRepository
	chunkRepo        contract.ChunkEmbeddingRepository
	loader           IDocumentLoaderService
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewIndexService(
	documentRepo contract.DocumentRepository,
	chunkRepo contract.ChunkEmbeddingRepository,
	loader IDocumentLoaderService,
	publisherService IPublisherService,
	log logger.ILogger,
) IIndexService {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &indexService{
		documentRepo:     documentRepo,
		chunkRepo:        chunkRepo,
		loader:           loader,
		publisherService: publisherService,
		logger:           log,
	}
}

func (s *indexService) IndexText(ctx context.Context, req *dto.IndexTextRequest) (*dto.IndexResponse, error) {
	source := req.Source
	if source == "" {
		source = sourceInline
	}

	document := &entity.Document{
		Id:       uuid.New(),
		Title:    req.Title,
		Source:   source,
		Content:  req.Content,
		Metadata: req.Metadata,
	}
	return s.persistAndQueue(ctx, document)
}

func (s *indexService) IndexFile(ctx context.Context, fileName string, data []byte) (*dto.IndexResponse, error) {
	title, content, err := s.loader.Load(fileName, data)
	if err != nil {
		return nil, err
	}

	document := &entity.Document{
		Id:      uuid.New(),
		Title:   title,
		Source:  fileName,
		Content: content,
	}
	return s.persistAndQueue(ctx, document)
}

func (s *indexService) persistAndQueue(ctx context.Context, document *entity.Document) (*dto.IndexResponse, error) {
	if err := s.documentRepo.Create(ctx, document); err != nil {
		s.logger.Error("index", "Failed to persist document", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	payload, err := json.Marshal(dto.PublishIndexDocumentMessage{DocumentId: document.Id})
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Error("index", "Failed to queue document for embedding", map[string]interface{}{
			"document_id": document.Id.String(),
			"error":       err.Error(),
		})
		return nil, err
	}

	s.logger.Info("index", "Document queued for embedding", map[string]interface{}{
		"document_id": document.Id.String(),
		"title":       document.Title,
	})

	return &dto.IndexResponse{
		DocumentId: document.Id,
		Status:     "queued",
	}, nil
}

func (s *indexService) ListDocuments(ctx context.Context, query *dto.ListDocumentsQuery) (*dto.ListDocumentsResponse, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = defaultPageSize
	}

	var filters []specification.Specification
	if query.Source != "" {
		filters = append(filters, specification.BySource{Source: query.Source})
	}

	total, err := s.documentRepo.Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	specs := append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	documents, err := s.documentRepo.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.DocumentResponse, 0, len(documents))
	for _, document := range documents {
		chunkCount, err := s.chunkRepo.CountByDocumentId(ctx, document.Id)
		if err != nil {
			return nil, err
		}
		result = append(result, &dto.DocumentResponse{
			Id:         document.Id,
			Title:      document.Title,
			Source:     document.Source,
			ChunkCount: chunkCount,
			CreatedAt:  document.CreatedAt,
			UpdatedAt:  document.UpdatedAt,
		})
	}
	return &dto.ListDocumentsResponse{Documents: result, Total: total}, nil
}

func (s *indexService) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	document, err := s.documentRepo.FindById(ctx, id)
	if err != nil {
		return err
	}
	if document == nil {
		return serverutils.NewNotFoundError("document not found")
	}

	if err := s.chunkRepo.DeleteByDocumentId(ctx, id); err != nil {
		return err
	}
	if err := s.documentRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("index", "Document deleted", map[string]interface{}{"document_id": id.String()})
	return nil
}
