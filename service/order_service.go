package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Puneet-Vishnoi/order-book/metrics"
	"github.com/Puneet-Vishnoi/order-book/models"
	"github.com/Puneet-Vishnoi/order-book/repository"
)

type OrderService struct {
	Store          repository.Store
	MatchingEngine *MatchingEngine
	Logger         *zap.Logger
	Metrics        *metrics.Metrics

	now func() time.Time
}

func NewOrderService(store repository.Store, logger *zap.Logger, m *metrics.Metrics) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		Store:          store,
		MatchingEngine: NewMatchingEngine(),
		Logger:         logger,
		Metrics:        m,
		now:            time.Now,
	}
}

// PlaceOrder matches a buy or sell against the opposing side of the
// category's book. If nothing matches, the quantity is merged into an own-side
// order at the same limit price or rests as a new order. Everything runs in
// one transaction holding the category lock; on error nothing is committed.
func (s *OrderService) PlaceOrder(
	ctx context.Context,
	action models.Action,
	limitPrice *decimal.Decimal,
	quantity decimal.Decimal,
	category models.Category,
) (outcome *models.PlaceOrderOutcome, err error) {
	start := time.Now()
	defer func() { s.Metrics.ObservePlacement(outcome, time.Since(start)) }()

	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if limitPrice != nil && !limitPrice.IsPositive() {
		return nil, ErrInvalidPrice
	}

	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return nil, storeErr("begin", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.Logger.Error("rollback failed", zap.Error(rbErr))
			}
		}
	}()

	if err = tx.LockCategory(ctx, category.ID); err != nil {
		return nil, storeErr("lock category", err)
	}

	// Step 1: fetch the opposing side in price priority
	resting, err := s.GetOrdersBySide(ctx, tx, action.OpposingSide(), limitPrice, category)
	if err != nil {
		return nil, err
	}

	// Step 2: consume, or rest the request on its own side
	results := s.MatchingEngine.Consume(resting, quantity, category.Name)
	if len(results) > 0 {
		if err = s.applyMatches(ctx, tx, results); err != nil {
			return nil, err
		}
		outcome = models.Matched(results)
	} else {
		outcome, err = s.placeResting(ctx, tx, action.OwnSide(), limitPrice, quantity, category)
		if err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, storeErr("commit", err)
	}

	s.Logger.Info("order placed",
		zap.String("action", string(action)),
		priceField(limitPrice),
		zap.Stringer("quantity", quantity),
		zap.Int64("category_id", category.ID),
		zap.String("outcome", string(outcome.Kind)),
		zap.Int("matches", len(outcome.Results)),
	)
	return outcome, nil
}

// GetOrdersBySide returns the orders of side in the category that a request
// at limitPrice may trade with, best price first: asks at or below the limit
// ascending, bids at or above the limit descending. A market order (nil
// limitPrice) sees the whole side and fails if it is empty.
func (s *OrderService) GetOrdersBySide(
	ctx context.Context,
	tx repository.Tx,
	side models.Side,
	limitPrice *decimal.Decimal,
	category models.Category,
) ([]models.Order, error) {
	q := repository.OrderQuery{
		Side:       side,
		CategoryID: category.ID,
		Sort:       repository.SortAsc,
	}
	op := repository.PriceAtMost
	if side == models.SideBid {
		q.Sort = repository.SortDesc
		op = repository.PriceAtLeast
	}
	if limitPrice != nil {
		q.Price = &repository.PriceFilter{Op: op, Bound: *limitPrice}
	}

	orders, err := tx.QueryOrders(ctx, q)
	if err != nil {
		return nil, storeErr("query orders", err)
	}
	if limitPrice == nil && len(orders) == 0 {
		return nil, ErrCannotDetermineMarketPrice
	}
	return orders, nil
}

// applyMatches deletes fully consumed orders and shrinks the rest.
func (s *OrderService) applyMatches(ctx context.Context, tx repository.Tx, results []models.MatchResult) error {
	for _, r := range results {
		if r.FullyConsumed() {
			found, err := tx.DeleteOrder(ctx, r.OrderID)
			if err != nil {
				return storeErr("delete order", err)
			}
			if !found {
				return storeErr("delete order", fmt.Errorf("order with ID %d: %w", r.OrderID, ErrRestingOrderMissing))
			}
			continue
		}
		if err := tx.UpdateOrderQuantity(ctx, r.OrderID, r.Remaining()); err != nil {
			return storeErr("update order", restingErr(r.OrderID, err))
		}
	}
	return nil
}

func (s *OrderService) placeResting(
	ctx context.Context,
	tx repository.Tx,
	side models.Side,
	limitPrice *decimal.Decimal,
	quantity decimal.Decimal,
	category models.Category,
) (*models.PlaceOrderOutcome, error) {
	ownSide, err := s.GetOrdersBySide(ctx, tx, side, limitPrice, category)
	if err != nil {
		return nil, err
	}

	price, err := s.MatchingEngine.RestingPrice(side, limitPrice, ownSide)
	if err != nil {
		return nil, err
	}

	if target := s.MatchingEngine.FindMergeTarget(ownSide, side, limitPrice, category.ID); target != nil {
		target.Quantity = target.Quantity.Add(quantity)
		if err := tx.UpdateOrderQuantity(ctx, target.ID, target.Quantity); err != nil {
			return nil, storeErr("update order", restingErr(target.ID, err))
		}
		return models.Updated(target), nil
	}

	order := &models.Order{
		Side:       side,
		Price:      price,
		Quantity:   quantity,
		CategoryID: category.ID,
		CreatedAt:  s.now().UTC(),
	}
	if err := tx.InsertOrder(ctx, order); err != nil {
		return nil, storeErr("insert order", err)
	}
	return models.Created(order), nil
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.OrderResponse, error) {
	var resp models.OrderResponse
	err := runInTx(ctx, s.Store, func(tx repository.Tx) error {
		order, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		category, err := tx.GetCategory(ctx, order.CategoryID)
		if err != nil {
			return err
		}
		resp = models.NewOrderResponse(order, category.Name)
		return nil
	})
	if err != nil {
		return nil, storeErr("get order", err)
	}
	return &resp, nil
}

func (s *OrderService) ListOrders(ctx context.Context) ([]models.OrderResponse, error) {
	resp := []models.OrderResponse{}
	err := runInTx(ctx, s.Store, func(tx repository.Tx) error {
		categories, err := tx.ListCategories(ctx)
		if err != nil {
			return err
		}
		names := make(map[int64]string, len(categories))
		for _, c := range categories {
			names[c.ID] = c.Name
		}

		orders, err := tx.ListOrders(ctx)
		if err != nil {
			return err
		}
		for i := range orders {
			resp = append(resp, models.NewOrderResponse(&orders[i], names[orders[i].CategoryID]))
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("list orders", err)
	}
	return resp, nil
}

// DeleteOrder removes a resting order. It returns repository.ErrNotFound
// (wrapped) when there is no such order.
func (s *OrderService) DeleteOrder(ctx context.Context, id int64) (*models.DeleteResponse, error) {
	err := runInTx(ctx, s.Store, func(tx repository.Tx) error {
		order, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.LockCategory(ctx, order.CategoryID); err != nil {
			return err
		}
		found, err := tx.DeleteOrder(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("order with ID %d: %w", id, repository.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("delete order", err)
	}

	s.Logger.Info("order deleted", zap.Int64("order_id", id))
	return &models.DeleteResponse{Message: fmt.Sprintf("Order %d deleted", id)}, nil
}

// GetOrderBook aggregates the category's resting orders into price levels,
// bids descending and asks ascending.
func (s *OrderService) GetOrderBook(ctx context.Context, category models.Category) (*models.OrderBookResponse, error) {
	resp := &models.OrderBookResponse{
		CategoryID:   category.ID,
		CategoryName: category.Name,
	}
	err := runInTx(ctx, s.Store, func(tx repository.Tx) error {
		bids, err := tx.QueryOrders(ctx, repository.OrderQuery{Side: models.SideBid, CategoryID: category.ID, Sort: repository.SortDesc})
		if err != nil {
			return err
		}
		asks, err := tx.QueryOrders(ctx, repository.OrderQuery{Side: models.SideAsk, CategoryID: category.ID, Sort: repository.SortAsc})
		if err != nil {
			return err
		}
		resp.Bids = aggregateLevels(bids)
		resp.Asks = aggregateLevels(asks)
		return nil
	})
	if err != nil {
		return nil, storeErr("get order book", err)
	}
	return resp, nil
}

// aggregateLevels folds price-sorted orders into one entry per price.
func aggregateLevels(orders []models.Order) []models.OrderBookEntry {
	entries := []models.OrderBookEntry{}
	for _, o := range orders {
		if n := len(entries); n > 0 && entries[n-1].Price.Equal(o.Price) {
			entries[n-1].Quantity = entries[n-1].Quantity.Add(o.Quantity)
			entries[n-1].Orders++
			continue
		}
		entries = append(entries, models.OrderBookEntry{Price: o.Price, Quantity: o.Quantity, Orders: 1})
	}
	return entries
}

func priceField(limitPrice *decimal.Decimal) zap.Field {
	if limitPrice == nil {
		return zap.String("limit_price", "market")
	}
	return zap.Stringer("limit_price", *limitPrice)
}

// Ready reports whether the order store is reachable.
func (s *OrderService) Ready(ctx context.Context) error {
	if err := s.Store.Ping(ctx); err != nil {
		return storeErr("ping", err)
	}
	return nil
}

// runInTx runs fn in a transaction, committing if it returns nil.
func runInTx(ctx context.Context, store repository.Store, fn func(tx repository.Tx) error) (err error) {
	tx, err := store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// restingErr keeps a vanished resting order from reading as a caller-side
// not-found.
func restingErr(id int64, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("order with ID %d: %w", id, ErrRestingOrderMissing)
	}
	return err
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
