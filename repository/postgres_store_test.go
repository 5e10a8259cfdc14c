package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Puneet-Vishnoi/order-book/db/postgres/providers"
	"github.com/Puneet-Vishnoi/order-book/models"
)

var orderRowColumns = []string{"id", "side", "price", "quantity", "category_id", "created_at"}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	helper, err := providers.NewDbProvider(db)
	require.NoError(t, err)
	return NewPostgresStore(helper), mock
}

func TestNewDbProviderRejectsNil(t *testing.T) {
	_, err := providers.NewDbProvider(nil)
	assert.Error(t, err)
}

func TestPostgresFetchOrdersBuildsQuery(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		q     OrderQuery
		query string
		args  []interface{}
	}{
		{
			name:  "asks at most limit",
			q:     OrderQuery{Side: models.SideAsk, CategoryID: 3, Price: &PriceFilter{Op: PriceAtMost, Bound: decimal.NewFromInt(100)}, Sort: SortAsc},
			query: `WHERE side = $1 AND category_id = $2 AND price <= $3 ORDER BY price ASC, id ASC`,
			args:  []interface{}{"ask", int64(3), decimal.NewFromInt(100)},
		},
		{
			name:  "bids at least limit",
			q:     OrderQuery{Side: models.SideBid, CategoryID: 3, Price: &PriceFilter{Op: PriceAtLeast, Bound: decimal.NewFromInt(100)}, Sort: SortDesc},
			query: `WHERE side = $1 AND category_id = $2 AND price >= $3 ORDER BY price DESC, id ASC`,
			args:  []interface{}{"bid", int64(3), decimal.NewFromInt(100)},
		},
		{
			name:  "market",
			q:     OrderQuery{Side: models.SideBid, CategoryID: 3, Sort: SortDesc},
			query: `WHERE side = $1 AND category_id = $2 ORDER BY price DESC, id ASC`,
			args:  []interface{}{"bid", int64(3)},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			ctx := context.Background()

			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta(tc.query)).
				WithArgs(toDriverArgs(tc.args)...).
				WillReturnRows(sqlmock.NewRows(orderRowColumns).
					AddRow(int64(7), string(tc.q.Side), "50.5", "2", int64(3), created))
			mock.ExpectRollback()

			tx, err := store.BeginTx(ctx)
			require.NoError(t, err)

			orders, err := tx.QueryOrders(ctx, tc.q)
			require.NoError(t, err)
			require.Len(t, orders, 1)
			assert.Equal(t, int64(7), orders[0].ID)
			assert.Equal(t, tc.q.Side, orders[0].Side)
			assert.True(t, orders[0].Price.Equal(decimal.RequireFromString("50.5")))
			assert.True(t, orders[0].Quantity.Equal(decimal.NewFromInt(2)))

			require.NoError(t, tx.Rollback())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresTxWrites(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO orders (side, price, quantity, category_id, created_at)`)).
		WithArgs("bid", "100", "5", int64(3), created).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET quantity = $1 WHERE id = $2`)).
		WithArgs("8", int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE orders SET quantity = $1 WHERE id = $2`)).
		WithArgs("8", int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM orders WHERE id = $1`)).
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.LockCategory(ctx, 3))

	o := &models.Order{Side: models.SideBid, Price: decimal.NewFromInt(100), Quantity: decimal.NewFromInt(5), CategoryID: 3, CreatedAt: created}
	require.NoError(t, tx.InsertOrder(ctx, o))
	assert.Equal(t, int64(11), o.ID)

	require.NoError(t, tx.UpdateOrderQuantity(ctx, 11, decimal.NewFromInt(8)))
	assert.ErrorIs(t, tx.UpdateOrderQuantity(ctx, 12, decimal.NewFromInt(8)), ErrNotFound)

	found, err := tx.DeleteOrder(ctx, 11)
	require.NoError(t, err)
	assert.True(t, found)

	require.NoError(t, tx.Commit())
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetOrderNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id = $1`)).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	_, err = tx.GetOrder(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCategories(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO categories (name) VALUES ($1) RETURNING id`)).
		WithArgs("apples").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM categories ORDER BY id ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "apples").AddRow(int64(2), "pears"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM categories WHERE id = $1`)).
		WithArgs(int64(5)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM categories WHERE id = $1`)).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	c := &models.Category{Name: "apples"}
	require.NoError(t, tx.InsertCategory(ctx, c))
	assert.Equal(t, int64(1), c.ID)

	all, err := tx.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Category{{ID: 1, Name: "apples"}, {ID: 2, Name: "pears"}}, all)

	_, err = tx.GetCategory(ctx, 5)
	assert.ErrorIs(t, err, ErrNotFound)

	found, err := tx.DeleteCategory(ctx, 2)
	require.NoError(t, err)
	assert.True(t, found)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// toDriverArgs turns decimals into the string form database/sql sends.
func toDriverArgs(args []interface{}) []driver.Value {
	out := make([]driver.Value, len(args))
	for i, a := range args {
		if d, ok := a.(decimal.Decimal); ok {
			out[i] = d.String()
			continue
		}
		out[i] = a
	}
	return out
}

func TestPostgresPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	helper, err := providers.NewDbProvider(db)
	require.NoError(t, err)
	store := NewPostgresStore(helper)

	mock.ExpectPing()
	assert.NoError(t, store.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(sql.ErrConnDone)
	assert.ErrorIs(t, store.Ping(context.Background()), sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRejectsUnknownSide(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id = $1`)).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(orderRowColumns).
			AddRow(int64(4), "sideways", "10", "1", int64(3), created))
	mock.ExpectRollback()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	_, err = tx.GetOrder(ctx, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown side "sideways"`)
	assert.NotErrorIs(t, err, ErrNotFound)

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}
