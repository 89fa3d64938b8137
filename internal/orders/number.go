package orders

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewOrderNumber builds a human-legible order number: ORD-<unix>-<buyer>-<suffix>.
// The random suffix removes the collision hazard of two checkouts by the same
// buyer in the same second.
func NewOrderNumber(buyerID int64, now time.Time) string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("ORD-%d-%d-%s", now.Unix(), buyerID, hex.EncodeToString(b[:]))
}
