package dto

import "github.com/google/uuid"

type AddFoodRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Calories    float64 `json:"calories" validate:"gte=0"`
	Protein     float64 `json:"protein" validate:"gte=0"`
	Carbs       float64 `json:"carbs" validate:"gte=0"`
	Fat         float64 `json:"fat" validate:"gte=0"`
	Description string  `json:"description"`
	Group       string  `json:"group"`
}

type AddFoodResponse struct {
	Id uuid.UUID `json:"id"`
}
