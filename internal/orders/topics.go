package orders

import "strconv"

const (
	TopicOrderPlaced = "order.placed"
	TopicItemStatus  = "order.item.status"
)

// Partition key = order id, so every event of one order keeps its ordering.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}
