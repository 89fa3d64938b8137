package orders

import (
	"context"
	"errors"
	"time"

	"github.com/annvahak/marketplace/internal/auth"
	"github.com/shopspring/decimal"
)

// Service is the order lifecycle core: checkout placement and per-item status
// progression. It is the only component allowed to create or mutate orders.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// inTx runs fn transactionally and folds begin/commit failures into the
// storage kind so callers only ever see the taxonomy.
func (s *Service) inTx(ctx context.Context, op string, fn func(tx Tx) error) error {
	err := s.store.RunInTx(ctx, fn)
	if err == nil || isDomainErr(err) {
		return err
	}
	return storageErr(op, err)
}

// PlaceOrder validates the cart, snapshots prices, decrements stock and
// commits the order with its items as one transaction. Any failure rolls the
// whole thing back: no order row, no items, no stock change.
func (s *Service) PlaceOrder(ctx context.Context, buyerID int64, lines []CartLine, deliveryAddress, contactNumber string) (Order, []OrderItem, error) {
	if len(lines) == 0 {
		return Order{}, nil, validationErr("cart must contain at least one item")
	}
	if deliveryAddress == "" {
		return Order{}, nil, validationErr("delivery address is required")
	}
	if contactNumber == "" {
		return Order{}, nil, validationErr("contact number is required")
	}
	for _, ln := range lines {
		if ln.ListingID <= 0 {
			return Order{}, nil, validationErr("cart line is missing a listing id")
		}
		if ln.Quantity <= 0 {
			return Order{}, nil, validationErr("quantity for listing %d must be positive", ln.ListingID)
		}
	}

	var (
		order Order
		items []OrderItem
	)
	err := s.inTx(ctx, "place order", func(tx Tx) error {
		now := s.now().UTC()
		total := decimal.Zero
		items = make([]OrderItem, 0, len(lines))

		for _, ln := range lines {
			listing, err := tx.GetListing(ctx, ln.ListingID)
			if errors.Is(err, ErrNotFound) {
				return notFoundErr("listing %d not found or not available", ln.ListingID)
			}
			if err != nil {
				return storageErr("fetch listing", err)
			}
			if !listing.Sellable() {
				return notFoundErr("listing %d not found or not available", ln.ListingID)
			}
			if listing.Quantity < ln.Quantity {
				return stockErr(ln.ListingID, ln.Quantity, listing.Quantity)
			}

			lineTotal := listing.Price.Mul(decimal.NewFromInt(int64(ln.Quantity)))
			total = total.Add(lineTotal)
			items = append(items, OrderItem{
				ListingID:  listing.ID,
				ProducerID: listing.ProducerID,
				Quantity:   ln.Quantity,
				UnitPrice:  listing.Price,
				LineTotal:  lineTotal,
				Status:     StatusPending,
				CreatedAt:  now,
			})
		}

		order = Order{
			OrderNumber:     NewOrderNumber(buyerID, now),
			BuyerID:         buyerID,
			Status:          StatusPending,
			TotalAmount:     total,
			DeliveryAddress: deliveryAddress,
			ContactNumber:   contactNumber,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.InsertOrder(ctx, &order); err != nil {
			return storageErr("insert order", err)
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.InsertItems(ctx, items); err != nil {
			return storageErr("insert order items", err)
		}

		// Guarded decrements last. A false here means another checkout won
		// the race after our read above; abort and let the caller retry.
		for _, ln := range lines {
			ok, err := tx.DecrementStock(ctx, ln.ListingID, ln.Quantity)
			if err != nil {
				return storageErr("decrement stock", err)
			}
			if !ok {
				return conflictErr("listing %d was oversold concurrently, retry with fresh stock", ln.ListingID)
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, nil, err
	}
	return order, items, nil
}

// SetItemStatus transitions one order item and re-derives the parent order's
// status from the full sibling set, all inside one transaction. The item row
// and then the order row are locked, so concurrent transitions on items of
// the same order serialize and the sibling scan never sees a stale set.
func (s *Service) SetItemStatus(ctx context.Context, actor auth.Actor, itemID int64, newStatus Status) (Order, OrderItem, error) {
	if !newStatus.Valid() {
		return Order{}, OrderItem{}, validationErr("unknown status %q", newStatus)
	}

	var (
		order Order
		item  OrderItem
	)
	err := s.inTx(ctx, "set item status", func(tx Tx) error {
		var err error
		item, err = tx.GetItemForUpdate(ctx, itemID)
		if errors.Is(err, ErrNotFound) {
			return notFoundErr("order item %d not found", itemID)
		}
		if err != nil {
			return storageErr("fetch order item", err)
		}
		if !actor.CanUpdateItem(item.ProducerID) {
			return permissionErr("actor %d may not update order item %d", actor.ID, itemID)
		}

		order, err = tx.GetOrderForUpdate(ctx, item.OrderID)
		if err != nil {
			return storageErr("fetch order", err)
		}

		if err := tx.UpdateItemStatus(ctx, itemID, newStatus); err != nil {
			return storageErr("update item status", err)
		}
		item.Status = newStatus

		siblings, err := tx.SiblingStatuses(ctx, item.OrderID)
		if err != nil {
			return storageErr("scan sibling items", err)
		}
		derived := DeriveOrderStatus(order.Status, siblings)
		if derived != order.Status {
			if err := tx.UpdateOrderStatus(ctx, item.OrderID, derived); err != nil {
				return storageErr("update order status", err)
			}
			order.Status = derived
		}
		order.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return Order{}, OrderItem{}, err
	}
	return order, item, nil
}

// GetOrder returns an order with its items, scoped to what the actor may see.
func (s *Service) GetOrder(ctx context.Context, actor auth.Actor, orderID int64) (Order, []OrderItem, error) {
	order, items, err := s.store.GetOrder(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		return Order{}, nil, notFoundErr("order %d not found", orderID)
	}
	if err != nil {
		return Order{}, nil, storageErr("fetch order", err)
	}
	producerIDs := make([]int64, 0, len(items))
	for _, it := range items {
		producerIDs = append(producerIDs, it.ProducerID)
	}
	if !actor.CanViewOrder(order.BuyerID, producerIDs) {
		return Order{}, nil, permissionErr("actor %d may not view order %d", actor.ID, orderID)
	}
	return order, items, nil
}

// ListBuyerOrders returns the buyer's own orders, newest first.
func (s *Service) ListBuyerOrders(ctx context.Context, buyerID int64) ([]Order, error) {
	out, err := s.store.ListBuyerOrders(ctx, buyerID)
	if err != nil {
		return nil, storageErr("list buyer orders", err)
	}
	return out, nil
}

// ListProducerItems returns every order item owned by the producer.
func (s *Service) ListProducerItems(ctx context.Context, producerID int64) ([]OrderItem, error) {
	out, err := s.store.ListProducerItems(ctx, producerID)
	if err != nil {
		return nil, storageErr("list producer items", err)
	}
	return out, nil
}

// ListAllOrders is the admin view.
func (s *Service) ListAllOrders(ctx context.Context, actor auth.Actor) ([]Order, error) {
	if actor.Role != auth.RoleAdmin {
		return nil, permissionErr("actor %d may not list all orders", actor.ID)
	}
	out, err := s.store.ListAllOrders(ctx)
	if err != nil {
		return nil, storageErr("list orders", err)
	}
	return out, nil
}
