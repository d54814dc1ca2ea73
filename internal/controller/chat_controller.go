package controller

import (
	"bufio"
	"context"
	"time"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/pkg/serverutils"
	"rag-chat-be/internal/service"
	"rag-chat-be/pkg/rag/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Local(ctx *fiber.Ctx) error
	Rag(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	modelName   string
	logger      logger.ILogger
}

func NewChatController(chatService service.IChatService, modelName string, log logger.ILogger) IChatController {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &chatController{
		chatService: chatService,
		modelName:   modelName,
		logger:      log,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("local", c.Local)
	h.Post("rag", c.Rag)
}

// Local answers from the model alone, without retrieval.
func (c *chatController) Local(ctx *fiber.Ctx) error {
	req, err := c.parseRequest(ctx)
	if err != nil {
		return err
	}

	if req.Stream {
		return c.streamResponse(ctx, func(streamCtx context.Context) (<-chan stream.Event, error) {
			return c.chatService.ChatStream(streamCtx, req)
		})
	}

	res, err := c.chatService.Chat(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

// Rag grounds the answer in retrieved documents and cites them.
func (c *chatController) Rag(ctx *fiber.Ctx) error {
	req, err := c.parseRequest(ctx)
	if err != nil {
		return err
	}

	if req.Stream {
		return c.streamResponse(ctx, func(streamCtx context.Context) (<-chan stream.Event, error) {
			return c.chatService.RagChatStream(streamCtx, req)
		})
	}

	res, err := c.chatService.RagChat(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *chatController) parseRequest(ctx *fiber.Ctx) (*dto.ChatRequest, error) {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return nil, serverutils.NewValidationError("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	return &req, nil
}

// streamResponse opens the event stream before the handler returns so
// validation failures still produce a normal JSON error. The stream itself
// runs on a detached context: the fiber request context dies with the
// handler, not with the response body.
func (c *chatController) streamResponse(ctx *fiber.Ctx, open func(context.Context) (<-chan stream.Event, error)) error {
	streamCtx, cancel := context.WithCancel(context.Background())

	events, err := open(streamCtx)
	if err != nil {
		cancel()
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	requestId := "chatcmpl-" + uuid.NewString()
	created := time.Now().Unix()

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		clientGone := false
		for event := range events {
			if clientGone {
				// Keep draining so the bridge can deliver Done and exit.
				continue
			}

			var writeErr error
			switch event.Type {
			case stream.EventContent:
				writeErr = writeContentEvent(w, requestId, c.modelName, created, event.Content)
			case stream.EventSources:
				writeErr = writeSourcesEvent(w, event.Sources)
			case stream.EventError:
				writeErr = writeErrorEvent(w, event.Err)
			case stream.EventDone:
				writeErr = writeDoneEvent(w)
			}
			if writeErr == nil {
				writeErr = w.Flush()
			}
			if writeErr != nil {
				c.logger.Warn("chat", "Client disconnected mid-stream", map[string]interface{}{
					"error": writeErr.Error(),
				})
				cancel()
				clientGone = true
			}
		}
	}))

	return nil
}
