package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Puneet-Vishnoi/order-book/models"
	"github.com/Puneet-Vishnoi/order-book/repository"
)

type testDeps struct {
	Store      *repository.PebbleStore
	Orders     *OrderService
	Categories *CategoryService
}

// newTestDeps wires the services over an in-memory pebble store.
func newTestDeps(t *testing.T) *testDeps {
	t.Helper()

	store, err := repository.OpenPebbleStore("", &pebble.Options{FS: vfs.NewMem()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	orders := NewOrderService(store, nil, nil)
	orders.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	return &testDeps{
		Store:      store,
		Orders:     orders,
		Categories: NewCategoryService(store, nil),
	}
}

func (d *testDeps) category(t *testing.T, name string) models.Category {
	t.Helper()
	c, err := d.Categories.CreateCategory(context.Background(), name)
	require.NoError(t, err)
	return *c
}

// seed inserts resting orders directly, bypassing matching.
func (d *testDeps) seed(t *testing.T, category models.Category, orders ...models.Order) []int64 {
	t.Helper()
	var ids []int64
	err := runInTx(context.Background(), d.Store, func(tx repository.Tx) error {
		for _, o := range orders {
			o.CategoryID = category.ID
			o.CreatedAt = time.Now().UTC()
			if err := tx.InsertOrder(context.Background(), &o); err != nil {
				return err
			}
			ids = append(ids, o.ID)
		}
		return nil
	})
	require.NoError(t, err)
	return ids
}

func (d *testDeps) book(t *testing.T, category models.Category) []models.Order {
	t.Helper()
	var out []models.Order
	err := runInTx(context.Background(), d.Store, func(tx repository.Tx) error {
		all, err := tx.ListOrders(context.Background())
		for _, o := range all {
			if o.CategoryID == category.ID {
				out = append(out, o)
			}
		}
		return err
	})
	require.NoError(t, err)
	return out
}

func ask(price, qty int64) models.Order {
	return models.Order{Side: models.SideAsk, Price: decimal.NewFromInt(price), Quantity: decimal.NewFromInt(qty)}
}

func bid(price, qty int64) models.Order {
	return models.Order{Side: models.SideBid, Price: decimal.NewFromInt(price), Quantity: decimal.NewFromInt(qty)}
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func price(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func assertDecimal(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, got.Equal(decimal.NewFromInt(want)), append([]interface{}{"want %d, got %s", want, got.String()}, msgAndArgs...)...)
}

// faultyStore fails the named operation of every transaction it opens.
type faultyStore struct {
	repository.Store
	failOn string
}

var errInjected = errors.New("injected store failure")

func (s *faultyStore) BeginTx(ctx context.Context) (repository.Tx, error) {
	tx, err := s.Store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return &faultyTx{Tx: tx, failOn: s.failOn}, nil
}

type faultyTx struct {
	repository.Tx
	failOn string
}

func (t *faultyTx) UpdateOrderQuantity(ctx context.Context, id int64, q decimal.Decimal) error {
	switch t.failOn {
	case "update":
		return errInjected
	case "update-missing":
		return fmt.Errorf("order with ID %d: %w", id, repository.ErrNotFound)
	}
	return t.Tx.UpdateOrderQuantity(ctx, id, q)
}

func (t *faultyTx) DeleteOrder(ctx context.Context, id int64) (bool, error) {
	if t.failOn == "delete-missing" {
		return false, nil
	}
	return t.Tx.DeleteOrder(ctx, id)
}

func (t *faultyTx) InsertOrder(ctx context.Context, o *models.Order) error {
	if t.failOn == "insert" {
		return errInjected
	}
	return t.Tx.InsertOrder(ctx, o)
}

func (t *faultyTx) Commit() error {
	if t.failOn == "commit" {
		t.Tx.Rollback()
		return errInjected
	}
	return t.Tx.Commit()
}
