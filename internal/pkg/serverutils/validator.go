package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

func ValidateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return NewRequestError(fiber.StatusBadRequest, "Invalid request", err.Error())
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		if fe.Param() != "" {
			messages = append(messages, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			messages = append(messages, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
		}
	}

	return NewRequestError(fiber.StatusBadRequest, "Validation failed", strings.Join(messages, "; "))
}
