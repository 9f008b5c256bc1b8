package orders

import "strconv"

const (
	TopicOrderCreated   = "pos.order.created"
	TopicOrderStatus    = "pos.order.status"
	TopicPaymentSettled = "pos.payment.settled"
)

// Partition key = order id, supaya semua event 1 order maintain urutan.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}
