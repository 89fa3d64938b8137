package orders_test

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/annvahak/marketplace/internal/catalog"
	"github.com/annvahak/marketplace/internal/orders"
)

// memState is a full snapshot of the store's tables.
type memState struct {
	listings  map[int64]catalog.Listing
	orders    map[int64]orders.Order
	items     map[int64]orders.OrderItem
	nextOrder int64
	nextItem  int64
}

func (s memState) clone() memState {
	c := memState{
		listings:  make(map[int64]catalog.Listing, len(s.listings)),
		orders:    make(map[int64]orders.Order, len(s.orders)),
		items:     make(map[int64]orders.OrderItem, len(s.items)),
		nextOrder: s.nextOrder,
		nextItem:  s.nextItem,
	}
	for k, v := range s.listings {
		c.listings[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	return c
}

// memStore implements orders.Store over maps. Each RunInTx works on a clone
// of the state and swaps it in on success, so a failed transaction is a true
// rollback. The store-wide mutex makes transactions serializable.
type memStore struct {
	mu    sync.Mutex
	state memState

	// failure injection
	decrementErr      error
	forceDecrementOff map[int64]bool // pretend another tx won the decrement race
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		listings: map[int64]catalog.Listing{},
		orders:   map[int64]orders.Order{},
		items:    map[int64]orders.OrderItem{},
	}}
}

func (s *memStore) addListing(l catalog.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.listings[l.ID] = l
}

func (s *memStore) snapshot() memState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *memStore) listingQuantity(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.listings[id].Quantity
}

func (s *memStore) RunInTx(ctx context.Context, fn func(tx orders.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged := s.state.clone()
	if err := fn(&memTx{store: s, st: &staged}); err != nil {
		return err
	}
	s.state = staged
	return nil
}

type memTx struct {
	store *memStore
	st    *memState
}

func (t *memTx) GetListing(ctx context.Context, listingID int64) (catalog.Listing, error) {
	l, ok := t.st.listings[listingID]
	if !ok {
		return catalog.Listing{}, orders.ErrNotFound
	}
	return l, nil
}

func (t *memTx) DecrementStock(ctx context.Context, listingID int64, qty int) (bool, error) {
	if t.store.decrementErr != nil {
		return false, t.store.decrementErr
	}
	if t.store.forceDecrementOff[listingID] {
		return false, nil
	}
	l, ok := t.st.listings[listingID]
	if !ok || l.Quantity < qty {
		return false, nil
	}
	l.Quantity -= qty
	t.st.listings[listingID] = l
	return true, nil
}

func (t *memTx) InsertOrder(ctx context.Context, o *orders.Order) error {
	t.st.nextOrder++
	o.ID = t.st.nextOrder
	t.st.orders[o.ID] = *o
	return nil
}

func (t *memTx) InsertItems(ctx context.Context, items []orders.OrderItem) error {
	for i := range items {
		t.st.nextItem++
		items[i].ID = t.st.nextItem
		t.st.items[items[i].ID] = items[i]
	}
	return nil
}

func (t *memTx) GetItemForUpdate(ctx context.Context, itemID int64) (orders.OrderItem, error) {
	it, ok := t.st.items[itemID]
	if !ok {
		return orders.OrderItem{}, orders.ErrNotFound
	}
	return it, nil
}

func (t *memTx) GetOrderForUpdate(ctx context.Context, orderID int64) (orders.Order, error) {
	o, ok := t.st.orders[orderID]
	if !ok {
		return orders.Order{}, orders.ErrNotFound
	}
	return o, nil
}

func (t *memTx) UpdateItemStatus(ctx context.Context, itemID int64, status orders.Status) error {
	it, ok := t.st.items[itemID]
	if !ok {
		return orders.ErrNotFound
	}
	it.Status = status
	t.st.items[itemID] = it
	return nil
}

func (t *memTx) SiblingStatuses(ctx context.Context, orderID int64) ([]orders.Status, error) {
	var out []orders.Status
	for _, it := range t.st.items {
		if it.OrderID == orderID {
			out = append(out, it.Status)
		}
	}
	return out, nil
}

func (t *memTx) UpdateOrderStatus(ctx context.Context, orderID int64, status orders.Status) error {
	o, ok := t.st.orders[orderID]
	if !ok {
		return orders.ErrNotFound
	}
	o.Status = status
	t.st.orders[orderID] = o
	return nil
}

func (s *memStore) GetOrder(ctx context.Context, orderID int64) (orders.Order, []orders.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.state.orders[orderID]
	if !ok {
		return orders.Order{}, nil, orders.ErrNotFound
	}
	var items []orders.OrderItem
	for _, it := range s.state.items {
		if it.OrderID == orderID {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return o, items, nil
}

func (s *memStore) ListBuyerOrders(ctx context.Context, buyerID int64) ([]orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []orders.Order
	for _, o := range s.state.orders {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memStore) ListProducerItems(ctx context.Context, producerID int64) ([]orders.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []orders.OrderItem
	for _, it := range s.state.items {
		if it.ProducerID == producerID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memStore) ListAllOrders(ctx context.Context) ([]orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []orders.Order
	for _, o := range s.state.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

var errBrokenStore = errors.New("store is on fire")
