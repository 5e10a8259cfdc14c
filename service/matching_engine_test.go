package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Puneet-Vishnoi/order-book/models"
)

func withIDs(orders ...models.Order) []models.Order {
	for i := range orders {
		orders[i].ID = int64(i + 1)
		orders[i].CategoryID = 7
	}
	return orders
}

func TestConsume(t *testing.T) {
	engine := NewMatchingEngine()

	tests := []struct {
		name     string
		resting  []models.Order
		quantity int64
		consumed []int64
	}{
		{name: "empty book", resting: nil, quantity: 10, consumed: nil},
		{name: "exact fill of first", resting: withIDs(ask(1, 10), ask(2, 10)), quantity: 10, consumed: []int64{10}},
		{name: "spans two orders", resting: withIDs(ask(1, 10), ask(2, 10)), quantity: 15, consumed: []int64{10, 5}},
		{name: "book exhausted", resting: withIDs(ask(1, 10), ask(2, 10)), quantity: 50, consumed: []int64{10, 10}},
		{name: "partial of first", resting: withIDs(ask(1, 10)), quantity: 4, consumed: []int64{4}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			results := engine.Consume(tc.resting, dec(tc.quantity), "cat")
			require.Len(t, results, len(tc.consumed))
			for i, want := range tc.consumed {
				assert.Equal(t, tc.resting[i].ID, results[i].OrderID)
				assertDecimal(t, want, results[i].ConsumedQuantity)
				assert.True(t, results[i].OriginalQuantity.Equal(tc.resting[i].Quantity))
				assert.Equal(t, "cat", results[i].CategoryName)
			}
		})
	}
}

func TestConsumeDoesNotMutateInput(t *testing.T) {
	resting := withIDs(ask(1, 10))
	NewMatchingEngine().Consume(resting, dec(4), "cat")
	assertDecimal(t, 10, resting[0].Quantity)
}

func TestMatchResultHelpers(t *testing.T) {
	full := models.MatchResult{OriginalQuantity: dec(5), ConsumedQuantity: dec(5)}
	part := models.MatchResult{OriginalQuantity: dec(5), ConsumedQuantity: dec(2)}

	assert.True(t, full.FullyConsumed())
	assert.False(t, part.FullyConsumed())
	assertDecimal(t, 3, part.Remaining())
}

func TestRestingPrice(t *testing.T) {
	engine := NewMatchingEngine()
	own := withIDs(ask(30, 1), ask(10, 1), ask(20, 1))

	p, err := engine.RestingPrice(models.SideAsk, price(99), own)
	require.NoError(t, err)
	assertDecimal(t, 99, p)

	p, err = engine.RestingPrice(models.SideAsk, nil, own)
	require.NoError(t, err)
	assertDecimal(t, 10, p)

	p, err = engine.RestingPrice(models.SideBid, nil, withIDs(bid(30, 1), bid(50, 1), bid(20, 1)))
	require.NoError(t, err)
	assertDecimal(t, 50, p)

	_, err = engine.RestingPrice(models.SideBid, nil, nil)
	assert.ErrorIs(t, err, ErrCannotDetermineMarketPrice)
}

func TestFindMergeTarget(t *testing.T) {
	engine := NewMatchingEngine()
	own := withIDs(bid(30, 1), bid(20, 1))

	target := engine.FindMergeTarget(own, models.SideBid, price(20), 7)
	require.NotNil(t, target)
	assert.Equal(t, int64(2), target.ID)

	assert.Nil(t, engine.FindMergeTarget(own, models.SideBid, price(25), 7))
	assert.Nil(t, engine.FindMergeTarget(own, models.SideBid, price(20), 8))
	assert.Nil(t, engine.FindMergeTarget(own, models.SideAsk, price(20), 7))
	assert.Nil(t, engine.FindMergeTarget(own, models.SideBid, nil, 7))
}

func TestActionSides(t *testing.T) {
	assert.Equal(t, models.SideAsk, models.ActionBuy.OpposingSide())
	assert.Equal(t, models.SideBid, models.ActionBuy.OwnSide())
	assert.Equal(t, models.SideBid, models.ActionSell.OpposingSide())
	assert.Equal(t, models.SideAsk, models.ActionSell.OwnSide())
}
