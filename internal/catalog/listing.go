package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing is a producer's sellable item. The order core reads listings and
// decrements Quantity; everything else about the catalog is owned elsewhere.
type Listing struct {
	ID         int64
	Name       string
	Category   string
	Price      decimal.Decimal
	Quantity   int
	Unit       string
	Approved   bool
	Available  bool
	ProducerID int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Sellable reports whether the listing may appear in a new order.
func (l Listing) Sellable() bool {
	return l.Approved && l.Available
}
