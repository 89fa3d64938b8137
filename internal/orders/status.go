package orders

// Status applies to both orders and order items. An item starts as pending
// and moves between values freely; the order-level status is derived from the
// item statuses and never set directly.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// DeriveOrderStatus computes the order status from its item statuses.
//
// The rule is a one-way ratchet: completed only when every item is completed,
// rejected only when every item is rejected, otherwise the current value
// stands. It never demotes an order back to pending or accepted.
func DeriveOrderStatus(current Status, items []Status) Status {
	if len(items) == 0 {
		return current
	}
	allCompleted, allRejected := true, true
	for _, s := range items {
		if s != StatusCompleted {
			allCompleted = false
		}
		if s != StatusRejected {
			allRejected = false
		}
	}
	switch {
	case allCompleted:
		return StatusCompleted
	case allRejected:
		return StatusRejected
	default:
		return current
	}
}
