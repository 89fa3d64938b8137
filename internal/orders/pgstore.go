package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/annvahak/marketplace/internal/catalog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the Postgres implementation of Store.
type PGStore struct{ DB *pgxpool.Pool }

func NewPGStore(db *pgxpool.Pool) *PGStore { return &PGStore{DB: db} }

func (s *PGStore) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) GetListing(ctx context.Context, listingID int64) (catalog.Listing, error) {
	var l catalog.Listing
	err := t.tx.QueryRow(ctx, `
		SELECT id, name, category, price, quantity, unit, is_approved, is_available, producer_id, created_at, updated_at
		FROM listings WHERE id=$1`, listingID).
		Scan(&l.ID, &l.Name, &l.Category, &l.Price, &l.Quantity, &l.Unit,
			&l.Approved, &l.Available, &l.ProducerID, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Listing{}, ErrNotFound
	}
	if err != nil {
		return catalog.Listing{}, err
	}
	return l, nil
}

// DecrementStock is the concurrency guard: the quantity check and the
// decrement happen in one statement, so two orders can never both take the
// last units of a listing.
func (t *pgTx) DecrementStock(ctx context.Context, listingID int64, qty int) (bool, error) {
	ct, err := t.tx.Exec(ctx, `
		UPDATE listings SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1 AND quantity >= $2`, listingID, qty)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (t *pgTx) InsertOrder(ctx context.Context, o *Order) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO orders(order_number, buyer_id, status, total_amount, delivery_address, contact_number, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
		RETURNING id`,
		o.OrderNumber, o.BuyerID, o.Status, o.TotalAmount,
		o.DeliveryAddress, o.ContactNumber, o.CreatedAt).Scan(&o.ID)
}

func (t *pgTx) InsertItems(ctx context.Context, items []OrderItem) error {
	for i := range items {
		err := t.tx.QueryRow(ctx, `
			INSERT INTO order_items(order_id, listing_id, producer_id, quantity, unit_price, line_total, status, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			RETURNING id`,
			items[i].OrderID, items[i].ListingID, items[i].ProducerID, items[i].Quantity,
			items[i].UnitPrice, items[i].LineTotal, items[i].Status, items[i].CreatedAt).
			Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("insert item for listing %d: %w", items[i].ListingID, err)
		}
	}
	return nil
}

func (t *pgTx) GetItemForUpdate(ctx context.Context, itemID int64) (OrderItem, error) {
	var it OrderItem
	err := t.tx.QueryRow(ctx, `
		SELECT id, order_id, listing_id, producer_id, quantity, unit_price, line_total, status, created_at
		FROM order_items WHERE id=$1 FOR UPDATE`, itemID).
		Scan(&it.ID, &it.OrderID, &it.ListingID, &it.ProducerID, &it.Quantity,
			&it.UnitPrice, &it.LineTotal, &it.Status, &it.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return OrderItem{}, ErrNotFound
	}
	if err != nil {
		return OrderItem{}, err
	}
	return it, nil
}

func (t *pgTx) GetOrderForUpdate(ctx context.Context, orderID int64) (Order, error) {
	var o Order
	err := t.tx.QueryRow(ctx, `
		SELECT id, order_number, buyer_id, status, total_amount, delivery_address, contact_number, created_at, updated_at
		FROM orders WHERE id=$1 FOR UPDATE`, orderID).
		Scan(&o.ID, &o.OrderNumber, &o.BuyerID, &o.Status, &o.TotalAmount,
			&o.DeliveryAddress, &o.ContactNumber, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (t *pgTx) UpdateItemStatus(ctx context.Context, itemID int64, status Status) error {
	ct, err := t.tx.Exec(ctx, `UPDATE order_items SET status=$2 WHERE id=$1`, itemID, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) SiblingStatuses(ctx context.Context, orderID int64) ([]Status, error) {
	rows, err := t.tx.Query(ctx, `SELECT status FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Status
	for rows.Next() {
		var s Status
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (t *pgTx) UpdateOrderStatus(ctx context.Context, orderID int64, status Status) error {
	_, err := t.tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, status)
	return err
}

const orderColumns = `id, order_number, buyer_id, status, total_amount, delivery_address, contact_number, created_at, updated_at`
const itemColumns = `id, order_id, listing_id, producer_id, quantity, unit_price, line_total, status, created_at`

func (s *PGStore) GetOrder(ctx context.Context, orderID int64) (Order, []OrderItem, error) {
	var o Order
	err := s.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID).
		Scan(&o.ID, &o.OrderNumber, &o.BuyerID, &o.Status, &o.TotalAmount,
			&o.DeliveryAddress, &o.ContactNumber, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, nil, ErrNotFound
	}
	if err != nil {
		return Order{}, nil, err
	}

	items, err := s.scanItems(ctx, `SELECT `+itemColumns+` FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return Order{}, nil, err
	}
	return o, items, nil
}

func (s *PGStore) ListBuyerOrders(ctx context.Context, buyerID int64) ([]Order, error) {
	return s.scanOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE buyer_id=$1 ORDER BY created_at DESC`, buyerID)
}

func (s *PGStore) ListAllOrders(ctx context.Context) ([]Order, error) {
	return s.scanOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (s *PGStore) ListProducerItems(ctx context.Context, producerID int64) ([]OrderItem, error) {
	return s.scanItems(ctx, `SELECT `+itemColumns+` FROM order_items WHERE producer_id=$1 ORDER BY created_at DESC`, producerID)
}

func (s *PGStore) scanOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.BuyerID, &o.Status, &o.TotalAmount,
			&o.DeliveryAddress, &o.ContactNumber, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PGStore) scanItems(ctx context.Context, query string, args ...any) ([]OrderItem, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ListingID, &it.ProducerID, &it.Quantity,
			&it.UnitPrice, &it.LineTotal, &it.Status, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
