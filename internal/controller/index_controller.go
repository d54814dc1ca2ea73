package controller

import (
	"io"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/serverutils"
	"rag-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// maxUploadSize bounds file uploads to 10 MB.
const maxUploadSize = 10 * 1024 * 1024

type IIndexController interface {
	RegisterRoutes(r fiber.Router)
	IndexText(ctx *fiber.Ctx) error
	IndexFile(ctx *fiber.Ctx) error
	ListDocuments(ctx *fiber.Ctx) error
	DeleteDocument(ctx *fiber.Ctx) error
}

type indexController struct {
	indexService service.IIndexService
}

func NewIndexController(indexService service.IIndexService) IIndexController {
	return &indexController{
		indexService: indexService,
	}
}

func (c *indexController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/index/v1")
	h.Post("text", c.IndexText)
	h.Post("file", c.IndexFile)
	h.Get("documents", c.ListDocuments)
	h.Delete("documents/:id", c.DeleteDocument)
}

func (c *indexController) IndexText(ctx *fiber.Ctx) error {
	var req dto.IndexTextRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewValidationError("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.indexService.IndexText(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Document queued", res))
}

func (c *indexController) IndexFile(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return serverutils.NewValidationError("file is required")
	}
	if fileHeader.Size > maxUploadSize {
		return serverutils.NewValidationError("file exceeds the 10MB limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	res, err := c.indexService.IndexFile(ctx.Context(), fileHeader.Filename, data)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Document queued", res))
}

func (c *indexController) ListDocuments(ctx *fiber.Ctx) error {
	var query dto.ListDocumentsQuery
	if err := ctx.QueryParser(&query); err != nil {
		return serverutils.NewValidationError("invalid query parameters")
	}
	if err := serverutils.ValidateRequest(query); err != nil {
		return err
	}

	res, err := c.indexService.ListDocuments(ctx.Context(), &query)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *indexController) DeleteDocument(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return serverutils.NewValidationError("invalid document id")
	}

	if err := c.indexService.DeleteDocument(ctx.Context(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Document deleted", nil))
}
