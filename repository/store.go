package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Puneet-Vishnoi/order-book/models"
)

var ErrNotFound = errors.New("not found")

type PriceOp int

const (
	PriceAtMost  PriceOp = iota // price <= bound
	PriceAtLeast                // price >= bound
)

type PriceFilter struct {
	Op    PriceOp
	Bound decimal.Decimal
}

func (f PriceFilter) Allows(price decimal.Decimal) bool {
	if f.Op == PriceAtMost {
		return price.LessThanOrEqual(f.Bound)
	}
	return price.GreaterThanOrEqual(f.Bound)
}

type SortDirection int

const (
	SortAsc SortDirection = iota
	SortDesc
)

// OrderQuery selects resting orders of one side within one category.
// Results are ordered by price in Sort direction, then by ascending id.
type OrderQuery struct {
	Side       models.Side
	CategoryID int64
	Price      *PriceFilter // nil means any price
	Sort       SortDirection
}

// Store opens transactions against the durable order store.
type Store interface {
	BeginTx(ctx context.Context) (Tx, error)
	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Tx is a single unit of work. Nothing it writes is visible to other
// transactions before Commit; Rollback after Commit is a no-op.
type Tx interface {
	// LockCategory serializes writers of one category's book until the
	// transaction ends.
	LockCategory(ctx context.Context, categoryID int64) error

	QueryOrders(ctx context.Context, q OrderQuery) ([]models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	InsertOrder(ctx context.Context, order *models.Order) error
	UpdateOrderQuantity(ctx context.Context, id int64, quantity decimal.Decimal) error
	DeleteOrder(ctx context.Context, id int64) (bool, error)

	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	InsertCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id int64) (bool, error)

	Commit() error
	Rollback() error
}
