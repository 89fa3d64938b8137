package orders

import (
	"context"

	"github.com/annvahak/marketplace/internal/catalog"
)

// Store opens sessions against the order and catalog tables. Implementations
// must roll back a session on any error return from fn, so a failed operation
// leaves no partial state behind.
type Store interface {
	// RunInTx executes fn inside a single transaction. The Tx passed to fn is
	// only valid for the duration of the call.
	RunInTx(ctx context.Context, fn func(tx Tx) error) error

	GetOrder(ctx context.Context, orderID int64) (Order, []OrderItem, error)
	ListBuyerOrders(ctx context.Context, buyerID int64) ([]Order, error)
	ListProducerItems(ctx context.Context, producerID int64) ([]OrderItem, error)
	ListAllOrders(ctx context.Context) ([]Order, error)
}

// Tx is one atomic session. Methods return ErrNotFound (possibly wrapped) for
// absent rows; any other error is a raw storage failure.
type Tx interface {
	// GetListing reads a listing's current state within the transaction.
	GetListing(ctx context.Context, listingID int64) (catalog.Listing, error)

	// DecrementStock atomically decrements a listing's quantity if at least
	// qty is available. Returns false when the guard rejects the decrement.
	DecrementStock(ctx context.Context, listingID int64, qty int) (bool, error)

	InsertOrder(ctx context.Context, o *Order) error
	InsertItems(ctx context.Context, items []OrderItem) error

	// GetItemForUpdate fetches an order item and row-locks it.
	GetItemForUpdate(ctx context.Context, itemID int64) (OrderItem, error)
	// GetOrderForUpdate fetches an order and row-locks it, serializing
	// concurrent status transitions on items of the same order.
	GetOrderForUpdate(ctx context.Context, orderID int64) (Order, error)

	UpdateItemStatus(ctx context.Context, itemID int64, status Status) error
	SiblingStatuses(ctx context.Context, orderID int64) ([]Status, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status Status) error
}
