package models

import "github.com/shopspring/decimal"

type PlaceOrderRequest struct {
	CategoryID int64            `json:"category_id" validate:"required,gt=0"`
	Action     Action           `json:"action" validate:"required,oneof=buy sell"`
	LimitPrice *decimal.Decimal `json:"limit_price,omitempty" validate:"omitempty,gt=0"` // nil for market orders
	Quantity   decimal.Decimal  `json:"quantity" validate:"required,gt=0"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}

type UpdateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}
