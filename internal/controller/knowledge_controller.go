package controller

import (
	"github.com/hoanghaiduong/gym-food-rag/internal/dto"
	"github.com/hoanghaiduong/gym-food-rag/internal/pkg/serverutils"
	"github.com/hoanghaiduong/gym-food-rag/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IKnowledgeController interface {
	RegisterRoutes(r fiber.Router)
	AddFood(ctx *fiber.Ctx) error
}

type knowledgeController struct {
	service   service.IKnowledgeService
	jwtSecret string
}

func NewKnowledgeController(service service.IKnowledgeService, jwtSecret string) IKnowledgeController {
	return &knowledgeController{service: service, jwtSecret: jwtSecret}
}

func (c *knowledgeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/knowledge/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret), serverutils.AdminOnly)
	h.Post("foods", c.AddFood)
}

func (c *knowledgeController) AddFood(ctx *fiber.Ctx) error {
	var req dto.AddFoodRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewRequestError(fiber.StatusBadRequest, "Invalid request body", err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.AddFood(ctx.UserContext(), &req)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success add food", res))
}
