package controller

import (
	"errors"

	"github.com/hoanghaiduong/gym-food-rag/internal/pkg/serverutils"
	"github.com/hoanghaiduong/gym-food-rag/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// currentUserId reads the owner id JwtMiddleware stored in the locals.
func currentUserId(ctx *fiber.Ctx) (uuid.UUID, error) {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, serverutils.NewRequestError(fiber.StatusUnauthorized, "Invalid claims", "user_id is not a uuid")
	}
	return userId, nil
}

func mapServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return serverutils.NewRequestError(fiber.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, service.ErrSessionNotFound):
		return serverutils.NewRequestError(fiber.StatusNotFound, "Session not found", "")
	case errors.Is(err, service.ErrRetrievalFailed):
		return serverutils.NewRequestError(fiber.StatusBadGateway, "Knowledge retrieval failed", err.Error())
	case errors.Is(err, service.ErrGenerationFailed):
		return serverutils.NewRequestError(fiber.StatusBadGateway, "Answer generation failed", err.Error())
	default:
		return err
	}
}
