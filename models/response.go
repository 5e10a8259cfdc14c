package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderResponse struct {
	ID           int64           `json:"id"`
	Side         Side            `json:"side"`
	Price        decimal.Decimal `json:"price"`
	Quantity     decimal.Decimal `json:"quantity"`
	CreatedAt    time.Time       `json:"created_at"`
	CategoryName string          `json:"category"`
}

func NewOrderResponse(o *Order, categoryName string) OrderResponse {
	return OrderResponse{
		ID:           o.ID,
		Side:         o.Side,
		Price:        o.Price,
		Quantity:     o.Quantity,
		CreatedAt:    o.CreatedAt,
		CategoryName: categoryName,
	}
}

type PlaceOrderResponse struct {
	Outcome OutcomeKind    `json:"outcome"`
	Results []MatchResult  `json:"results,omitempty"`
	Order   *OrderResponse `json:"order,omitempty"`
}

type DeleteResponse struct {
	Message string `json:"message"`
}

type OrderBookEntry struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Orders   int             `json:"orders"`
}

type OrderBookResponse struct {
	CategoryID   int64            `json:"category_id"`
	CategoryName string           `json:"category"`
	Bids         []OrderBookEntry `json:"bids"`
	Asks         []OrderBookEntry `json:"asks"`
}
