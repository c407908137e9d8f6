package controller

import (
	"github.com/hoanghaiduong/gym-food-rag/internal/dto"
	"github.com/hoanghaiduong/gym-food-rag/internal/pkg/serverutils"
	"github.com/hoanghaiduong/gym-food-rag/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
}

type chatController struct {
	service   service.IChatService
	jwtSecret string
}

func NewChatController(service service.IChatService, jwtSecret string) IChatController {
	return &chatController{service: service, jwtSecret: jwtSecret}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Post("", c.Ask)
}

func (c *chatController) Ask(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewRequestError(fiber.StatusBadRequest, "Invalid request body", err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Ask(ctx.UserContext(), userId, &req)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success ask question", res))
}
