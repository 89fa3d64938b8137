package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one (listing, quantity) pair from a buyer's checkout request.
type CartLine struct {
	ListingID int64 `json:"listing_id"`
	Quantity  int   `json:"quantity"`
}

type Order struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"`
	BuyerID         int64           `json:"buyer_id"`
	Status          Status          `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DeliveryAddress string          `json:"delivery_address"`
	ContactNumber   string          `json:"contact_number"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem is one listing's slice of an order. UnitPrice is the listing
// price at placement time; later catalog price changes do not touch it.
type OrderItem struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order_id"`
	ListingID  int64           `json:"listing_id"`
	ProducerID int64           `json:"producer_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	LineTotal  decimal.Decimal `json:"line_total"`
	Status     Status          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}
