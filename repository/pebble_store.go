package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/shopspring/decimal"

	"github.com/Puneet-Vishnoi/order-book/models"
)

// keys: o/<8-byte-id>, c/<8-byte-id>, seq/o, seq/c
var (
	orderPrefix    = []byte("o/")
	categoryPrefix = []byte("c/")
	orderSeqKey    = []byte("seq/o")
	categorySeqKey = []byte("seq/c")
)

func orderKey(id int64) []byte    { return idKey(orderPrefix, id) }
func categoryKey(id int64) []byte { return idKey(categoryPrefix, id) }

func idKey(prefix []byte, id int64) []byte {
	k := make([]byte, len(prefix)+8)
	copy(k, prefix)
	binary.BigEndian.PutUint64(k[len(prefix):], uint64(id))
	return k
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}

// PebbleStore is an embedded Store. Transactions are indexed batches applied
// atomically on Commit; one transaction runs at a time.
type PebbleStore struct {
	db *pebble.DB
	mu sync.Mutex
}

func OpenPebbleStore(path string, opts *pebble.Options) (*PebbleStore, error) {
	if opts == nil {
		opts = &pebble.Options{}
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble at %q: %w", path, err)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

// Ping reads the order sequence key; a missing key is fine.
func (s *PebbleStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, closer, err := s.db.Get(orderSeqKey)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return closer.Close()
}

func (s *PebbleStore) BeginTx(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &pebbleTx{store: s, batch: s.db.NewIndexedBatch()}, nil
}

type pebbleTx struct {
	store *PebbleStore
	batch *pebble.Batch
	done  bool
}

// LockCategory is a no-op: the store lock already serializes every writer.
func (t *pebbleTx) LockCategory(ctx context.Context, categoryID int64) error {
	return ctx.Err()
}

func (t *pebbleTx) QueryOrders(ctx context.Context, q OrderQuery) ([]models.Order, error) {
	all, err := t.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	for _, o := range all {
		if o.Side != q.Side || o.CategoryID != q.CategoryID {
			continue
		}
		if q.Price != nil && !q.Price.Allows(o.Price) {
			continue
		}
		orders = append(orders, o)
	}

	// all is already in id order, so a stable sort keeps ids ascending within a price.
	slices.SortStableFunc(orders, func(a, b models.Order) int {
		if q.Sort == SortDesc {
			return b.Price.Cmp(a.Price)
		}
		return a.Price.Cmp(b.Price)
	})
	return orders, nil
}

func (t *pebbleTx) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var o models.Order
	if err := t.get(orderKey(id), &o); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("order with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %d: %w", id, err)
	}
	return &o, nil
}

func (t *pebbleTx) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := t.scan(orderPrefix, func(val []byte) error {
		var o models.Order
		if err := json.Unmarshal(val, &o); err != nil {
			return fmt.Errorf("failed to unmarshal order: %w", err)
		}
		orders = append(orders, o)
		return nil
	})
	return orders, err
}

func (t *pebbleTx) InsertOrder(ctx context.Context, order *models.Order) error {
	id, err := t.nextID(orderSeqKey)
	if err != nil {
		return err
	}
	order.ID = id
	return t.put(orderKey(id), order)
}

func (t *pebbleTx) UpdateOrderQuantity(ctx context.Context, id int64, quantity decimal.Decimal) error {
	o, err := t.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	o.Quantity = quantity
	return t.put(orderKey(id), o)
}

func (t *pebbleTx) DeleteOrder(ctx context.Context, id int64) (bool, error) {
	return t.delete(orderKey(id))
}

func (t *pebbleTx) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	if err := t.get(categoryKey(id), &c); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("category with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category by ID %d: %w", id, err)
	}
	return &c, nil
}

func (t *pebbleTx) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := t.scan(categoryPrefix, func(val []byte) error {
		var c models.Category
		if err := json.Unmarshal(val, &c); err != nil {
			return fmt.Errorf("failed to unmarshal category: %w", err)
		}
		categories = append(categories, c)
		return nil
	})
	return categories, err
}

func (t *pebbleTx) InsertCategory(ctx context.Context, category *models.Category) error {
	id, err := t.nextID(categorySeqKey)
	if err != nil {
		return err
	}
	category.ID = id
	return t.put(categoryKey(id), category)
}

func (t *pebbleTx) UpdateCategory(ctx context.Context, category *models.Category) error {
	if _, err := t.GetCategory(ctx, category.ID); err != nil {
		return err
	}
	return t.put(categoryKey(category.ID), category)
}

// DeleteCategory removes the category and every order resting in it.
func (t *pebbleTx) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	found, err := t.delete(categoryKey(id))
	if err != nil || !found {
		return found, err
	}

	orders, err := t.ListOrders(ctx)
	if err != nil {
		return false, err
	}
	for _, o := range orders {
		if o.CategoryID != id {
			continue
		}
		if _, err := t.delete(orderKey(o.ID)); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (t *pebbleTx) Commit() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	err := t.batch.Commit(pebble.Sync)
	t.finish()
	return err
}

func (t *pebbleTx) Rollback() error {
	if t.done {
		return nil
	}
	t.finish()
	return nil
}

func (t *pebbleTx) finish() {
	t.done = true
	t.batch.Close()
	t.store.mu.Unlock()
}

func (t *pebbleTx) get(key []byte, out any) error {
	val, closer, err := t.batch.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	defer closer.Close()
	return json.Unmarshal(val, out)
}

func (t *pebbleTx) put(key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return t.batch.Set(key, data, nil)
}

func (t *pebbleTx) delete(key []byte) (bool, error) {
	_, closer, err := t.batch.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	closer.Close()
	return true, t.batch.Delete(key, nil)
}

func (t *pebbleTx) scan(prefix []byte, fn func(val []byte) error) error {
	iter, err := t.batch.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (t *pebbleTx) nextID(seqKey []byte) (int64, error) {
	var next uint64 = 1
	val, closer, err := t.batch.Get(seqKey)
	switch {
	case err == nil:
		next = binary.BigEndian.Uint64(val) + 1
		closer.Close()
	case !errors.Is(err, pebble.ErrNotFound):
		return 0, err
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	if err := t.batch.Set(seqKey, buf, nil); err != nil {
		return 0, err
	}
	return int64(next), nil
}
