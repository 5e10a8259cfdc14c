package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Puneet-Vishnoi/order-book/db/postgres/providers"
	"github.com/Puneet-Vishnoi/order-book/models"
)

// PostgresStore is the Store backed by the orders and categories tables.
type PostgresStore struct {
	DBHelper   *providers.DBHelper
	Orders     *OrderRepository
	Categories *CategoryRepository
}

func NewPostgresStore(db *providers.DBHelper) *PostgresStore {
	return &PostgresStore{
		DBHelper:   db,
		Orders:     NewOrderRepository(db),
		Categories: NewCategoryRepository(db),
	}
}

func (s *PostgresStore) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.DBHelper.PostgresClient.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &postgresTx{tx: tx, store: s}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.DBHelper.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	return s.DBHelper.Close()
}

type postgresTx struct {
	tx    *sql.Tx
	store *PostgresStore
}

// LockCategory takes a transaction-scoped advisory lock keyed by category id.
func (t *postgresTx) LockCategory(ctx context.Context, categoryID int64) error {
	_, err := t.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, categoryID)
	return err
}

func (t *postgresTx) QueryOrders(ctx context.Context, q OrderQuery) ([]models.Order, error) {
	return t.store.Orders.FetchOrders(ctx, t.tx, q)
}

func (t *postgresTx) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return t.store.Orders.GetOrderByID(ctx, t.tx, id)
}

func (t *postgresTx) ListOrders(ctx context.Context) ([]models.Order, error) {
	return t.store.Orders.ListOrders(ctx, t.tx)
}

func (t *postgresTx) InsertOrder(ctx context.Context, order *models.Order) error {
	return t.store.Orders.CreateOrder(ctx, t.tx, order)
}

func (t *postgresTx) UpdateOrderQuantity(ctx context.Context, id int64, quantity decimal.Decimal) error {
	return t.store.Orders.UpdateQuantity(ctx, t.tx, id, quantity)
}

func (t *postgresTx) DeleteOrder(ctx context.Context, id int64) (bool, error) {
	return t.store.Orders.DeleteOrder(ctx, t.tx, id)
}

func (t *postgresTx) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	return t.store.Categories.GetCategoryByID(ctx, t.tx, id)
}

func (t *postgresTx) ListCategories(ctx context.Context) ([]models.Category, error) {
	return t.store.Categories.ListCategories(ctx, t.tx)
}

func (t *postgresTx) InsertCategory(ctx context.Context, category *models.Category) error {
	return t.store.Categories.CreateCategory(ctx, t.tx, category)
}

func (t *postgresTx) UpdateCategory(ctx context.Context, category *models.Category) error {
	return t.store.Categories.UpdateCategory(ctx, t.tx, category)
}

func (t *postgresTx) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	return t.store.Categories.DeleteCategory(ctx, t.tx, id)
}

func (t *postgresTx) Commit() error {
	return t.tx.Commit()
}

func (t *postgresTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
