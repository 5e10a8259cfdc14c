package service

import (
	"github.com/shopspring/decimal"

	"github.com/Puneet-Vishnoi/order-book/models"
)

type MatchingEngine struct{}

func NewMatchingEngine() *MatchingEngine {
	return &MatchingEngine{}
}

// Consume walks resting orders in the given priority order and takes
// min(remaining, order.Quantity) from each until quantity is exhausted.
// Orders past that point are not touched. If the resting orders run out
// first, the leftover quantity is dropped, not rested.
func (e *MatchingEngine) Consume(resting []models.Order, quantity decimal.Decimal, categoryName string) []models.MatchResult {
	var results []models.MatchResult
	remaining := quantity

	for i := 0; i < len(resting) && remaining.IsPositive(); i++ {
		order := resting[i]
		consumed := decimal.Min(remaining, order.Quantity)
		if !consumed.IsPositive() {
			continue
		}
		remaining = remaining.Sub(consumed)

		results = append(results, models.MatchResult{
			OrderID:          order.ID,
			Side:             order.Side,
			PriceAt:          order.Price,
			OriginalQuantity: order.Quantity,
			ConsumedQuantity: consumed,
			CategoryName:     categoryName,
		})
	}

	return results
}

// RestingPrice is the price an unmatched request rests at: its limit price,
// or for a market order the best price already resting on its own side
// (lowest ask, highest bid).
func (e *MatchingEngine) RestingPrice(side models.Side, limitPrice *decimal.Decimal, ownSide []models.Order) (decimal.Decimal, error) {
	if limitPrice != nil {
		return *limitPrice, nil
	}
	if len(ownSide) == 0 {
		return decimal.Decimal{}, ErrCannotDetermineMarketPrice
	}

	best := ownSide[0].Price
	for _, o := range ownSide[1:] {
		if side == models.SideAsk && o.Price.LessThan(best) {
			best = o.Price
		}
		if side == models.SideBid && o.Price.GreaterThan(best) {
			best = o.Price
		}
	}
	return best, nil
}

// FindMergeTarget returns the own-side order resting at exactly limitPrice in
// the category. Market orders (nil limitPrice) never merge.
func (e *MatchingEngine) FindMergeTarget(ownSide []models.Order, side models.Side, limitPrice *decimal.Decimal, categoryID int64) *models.Order {
	if limitPrice == nil {
		return nil
	}
	for i := range ownSide {
		o := &ownSide[i]
		if o.Side == side && o.CategoryID == categoryID && o.Price.Equal(*limitPrice) {
			return o
		}
	}
	return nil
}
