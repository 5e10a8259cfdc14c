package models

import "github.com/shopspring/decimal"

// MatchResult describes one resting order touched by a match.
type MatchResult struct {
	OrderID          int64           `json:"order_id"`
	Side             Side            `json:"side"`
	PriceAt          decimal.Decimal `json:"price_at"`
	OriginalQuantity decimal.Decimal `json:"original_quantity"`
	ConsumedQuantity decimal.Decimal `json:"consumed_quantity"`
	CategoryName     string          `json:"category"`
}

// Remaining is the quantity left on the resting order after consumption.
func (r MatchResult) Remaining() decimal.Decimal {
	return r.OriginalQuantity.Sub(r.ConsumedQuantity)
}

// FullyConsumed reports whether the resting order must be removed.
func (r MatchResult) FullyConsumed() bool {
	return r.ConsumedQuantity.Equal(r.OriginalQuantity)
}

// PlaceOrderOutcome is exactly one of: matched results, a created order, or
// an updated order.
type PlaceOrderOutcome struct {
	Kind    OutcomeKind
	Results []MatchResult
	Order   *Order
}

func Matched(results []MatchResult) *PlaceOrderOutcome {
	return &PlaceOrderOutcome{Kind: OutcomeMatched, Results: results}
}

func Created(order *Order) *PlaceOrderOutcome {
	return &PlaceOrderOutcome{Kind: OutcomeCreated, Order: order}
}

func Updated(order *Order) *PlaceOrderOutcome {
	return &PlaceOrderOutcome{Kind: OutcomeUpdated, Order: order}
}
