package serverutils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// RequestError carries an HTTP status through the handler chain.
type RequestError struct {
	Code    int
	Message string
	Detail  string
}

func (e *RequestError) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

func NewRequestError(code int, message, detail string) *RequestError {
	return &RequestError{Code: code, Message: message, Detail: detail}
}

// ErrorHandler renders any error into the standard error envelope.
// Usable both as fiber.Config.ErrorHandler and through ErrorHandlerMiddleware.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return ctx.Status(reqErr.Code).JSON(ErrorResponseWithDetail(reqErr.Code, reqErr.Message, reqErr.Detail))
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
	}

	return ctx.Status(fiber.StatusInternalServerError).
		JSON(ErrorResponseWithDetail(fiber.StatusInternalServerError, "Internal server error", err.Error()))
}

func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return ErrorHandler(ctx, err)
	}
}
