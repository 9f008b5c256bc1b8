package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventItemStatusChanged  = "ItemStatusChanged"
	EventPaymentSettled     = "PaymentSettled"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "pos-api"
	CorrelationID string          `json:"correlation_id,omitempty"` // order number
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

type OrderCreatedPayload struct {
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	OrderType   OrderType `json:"order_type"`
	Status      Status    `json:"status"`
	TableID     *int64    `json:"table_id,omitempty"`
	WaiterID    int64     `json:"waiter_id"`
	ItemCount   int       `json:"item_count"`
}

type OrderStatusChangedPayload struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Status      Status `json:"status"`
}

type ItemStatusChangedPayload struct {
	OrderID int64  `json:"order_id"`
	ItemID  int64  `json:"item_id"`
	Status  Status `json:"status"`
}

type PaymentSettledPayload struct {
	PaymentID   int64         `json:"payment_id"`
	OrderIDs    []int64       `json:"order_ids"`
	Method      PaymentMethod `json:"payment_method"`
	TotalAmount int           `json:"total_amount"`
	Change      int           `json:"change"`
}
