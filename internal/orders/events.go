package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced       = "OrderPlaced"
	EventItemStatusChanged = "OrderItemStatusChanged"
)

// Envelope wraps every event published by the order core. CorrelationID is
// the order id so all events of one order share a partition.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type PlacedItem struct {
	ItemID     int64           `json:"item_id"`
	ListingID  int64           `json:"listing_id"`
	ProducerID int64           `json:"producer_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

type OrderPlacedPayload struct {
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	BuyerID     int64           `json:"buyer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []PlacedItem    `json:"items"`
}

type ItemStatusChangedPayload struct {
	OrderID     int64  `json:"order_id"`
	ItemID      int64  `json:"item_id"`
	BuyerID     int64  `json:"buyer_id"`
	ProducerID  int64  `json:"producer_id"`
	ItemStatus  Status `json:"item_status"`
	OrderStatus Status `json:"order_status"`
}
