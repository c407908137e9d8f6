package controller

import (
	"github.com/hoanghaiduong/gym-food-rag/internal/dto"
	"github.com/hoanghaiduong/gym-food-rag/internal/pkg/serverutils"
	"github.com/hoanghaiduong/gym-food-rag/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IHistoryController interface {
	RegisterRoutes(r fiber.Router)
	ListTurns(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	GetTranscript(ctx *fiber.Ctx) error
	ClearHistory(ctx *fiber.Ctx) error
}

type historyController struct {
	service   service.IHistoryService
	jwtSecret string
}

func NewHistoryController(service service.IHistoryService, jwtSecret string) IHistoryController {
	return &historyController{service: service, jwtSecret: jwtSecret}
}

func (c *historyController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/history/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Get("", c.ListTurns)
	h.Get("sessions", c.ListSessions)
	h.Get("sessions/:id", c.GetTranscript)
	h.Delete("clear", c.ClearHistory)
}

func parsePage(ctx *fiber.Ctx) (dto.PageRequest, error) {
	var page dto.PageRequest
	if err := ctx.QueryParser(&page); err != nil {
		return page, serverutils.NewRequestError(fiber.StatusBadRequest, "Invalid pagination", err.Error())
	}
	return page.Normalize(), nil
}

func (c *historyController) ListTurns(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}
	page, err := parsePage(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ListTurns(ctx.UserContext(), userId, page)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *historyController) ListSessions(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}
	page, err := parsePage(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ListSessions(ctx.UserContext(), userId, page)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get sessions", res))
}

func (c *historyController) GetTranscript(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}
	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return serverutils.NewRequestError(fiber.StatusBadRequest, "Invalid session id", err.Error())
	}

	turns, err := c.service.GetTranscript(ctx.UserContext(), sessionId, userId)
	if err != nil {
		return mapServiceError(err)
	}
	if turns == nil {
		return mapServiceError(service.ErrSessionNotFound)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get transcript", &dto.TranscriptResponse{
		SessionId: sessionId,
		Turns:     turns,
	}))
}

func (c *historyController) ClearHistory(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	deleted, err := c.service.ClearHistory(ctx.UserContext(), userId)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success clear history", &dto.ClearHistoryResponse{DeletedRows: deleted}))
}
