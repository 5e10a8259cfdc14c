package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Puneet-Vishnoi/order-book/db/postgres/providers"
	"github.com/Puneet-Vishnoi/order-book/models"
)

const orderColumns = `id, side, price, quantity, category_id, created_at`

type OrderRepository struct {
	DBHelper *providers.DBHelper
}

func NewOrderRepository(db *providers.DBHelper) *OrderRepository {
	return &OrderRepository{DBHelper: db}
}

// CreateOrder inserts a new order and fills in its ID.
func (r *OrderRepository) CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	query := `
		INSERT INTO orders (side, price, quantity, category_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	return tx.QueryRowContext(ctx, query,
		string(order.Side), order.Price, order.Quantity, order.CategoryID, order.CreatedAt,
	).Scan(&order.ID)
}

// UpdateQuantity sets the resting quantity of an order.
func (r *OrderRepository) UpdateQuantity(ctx context.Context, tx *sql.Tx, id int64, quantity decimal.Decimal) error {
	query := `UPDATE orders SET quantity = $1 WHERE id = $2`
	res, err := tx.ExecContext(ctx, query, quantity, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *OrderRepository) DeleteOrder(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FetchOrders returns the orders of one side in a category, price-filtered and
// ordered by price then id.
func (r *OrderRepository) FetchOrders(ctx context.Context, tx *sql.Tx, q OrderQuery) ([]models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE side = $1 AND category_id = $2`
	args := []any{string(q.Side), q.CategoryID}

	if q.Price != nil {
		args = append(args, q.Price.Bound)
		placeholder := "$" + strconv.Itoa(len(args))
		if q.Price.Op == PriceAtMost {
			query += ` AND price <= ` + placeholder
		} else {
			query += ` AND price >= ` + placeholder
		}
	}

	if q.Sort == SortDesc {
		query += ` ORDER BY price DESC, id ASC`
	} else {
		query += ` ORDER BY price ASC, id ASC`
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (r *OrderRepository) ListOrders(ctx context.Context, tx *sql.Tx) ([]models.Order, error) {
	rows, err := tx.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

// GetOrderByID fetches one order by ID
func (r *OrderRepository) GetOrderByID(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %d: %w", id, err)
	}
	return o, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o    models.Order
		side string
	)
	if err := row.Scan(&o.ID, &side, &o.Price, &o.Quantity, &o.CategoryID, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Side = models.Side(side)
	if !o.Side.Valid() {
		return nil, fmt.Errorf("order %d has unknown side %q", o.ID, side)
	}
	return &o, nil
}

func scanOrders(rows *sql.Rows) ([]models.Order, error) {
	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}
