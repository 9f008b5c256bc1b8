package orders

import "time"

type OrderType string

const (
	TypeDineIn   OrderType = "DINE_IN"
	TypeTakeaway OrderType = "TAKEAWAY"
)

type PaymentMethod string

const (
	MethodCash PaymentMethod = "CASH"
	MethodQRIS PaymentMethod = "QRIS"
)

type Order struct {
	ID           int64       `json:"id"`
	OrderNumber  string      `json:"order_number"` // DDMMYY-NNNN
	OrderType    OrderType   `json:"order_type"`
	Status       Status      `json:"status"`
	TableID      *int64      `json:"table_id,omitempty"`
	TableNumber  *string     `json:"table_number,omitempty"`
	CustomerName *string     `json:"customer_name,omitempty"`
	WaiterID     int64       `json:"waiter_id"`
	WaiterName   *string     `json:"waiter_name,omitempty"`
	PaymentID    *int64      `json:"payment_id,omitempty"`
	Items        []OrderItem `json:"order_items"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// OrderItem carries a snapshot of the menu taken at insert time. The snapshot
// fields never change afterwards, so old tickets and receipts stay accurate
// even when the menu is re-priced or moved to another kitchen.
type OrderItem struct {
	ID           int64     `json:"id"`
	OrderID      int64     `json:"order_id"`
	MenuID       int64     `json:"menu_id"`
	MenuName     string    `json:"menu_name"`
	MenuPrice    int       `json:"menu_price"`
	CategoryID   *int64    `json:"category_id,omitempty"`
	CategoryName *string   `json:"category_name,omitempty"`
	KitchenID    *int64    `json:"kitchen_id,omitempty"`
	KitchenName  *string   `json:"kitchen_name,omitempty"`
	IsBuffet     bool      `json:"is_buffet"`
	Quantity     int       `json:"quantity"`
	Status       Status    `json:"status"`
	Notes        *string   `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MenuSnapshot is the immutable copy of menu data embedded into an item.
type MenuSnapshot struct {
	MenuID       int64
	MenuName     string
	MenuPrice    int
	CategoryID   *int64
	CategoryName *string
	KitchenID    *int64
	KitchenName  *string
	IsBuffet     bool
}

type Payment struct {
	ID          int64         `json:"id"`
	CashierID   int64         `json:"cashier_id"`
	CashierName *string       `json:"cashier_name,omitempty"`
	Method      PaymentMethod `json:"payment_method"`
	TotalAmount int           `json:"total_amount"`
	Cash        int           `json:"cash"`
	Change      int           `json:"change"`
	CreatedAt   time.Time     `json:"created_at"`
}

type Table struct {
	ID          int64  `json:"id"`
	TableNumber string `json:"table_number"`
	IsAvailable bool   `json:"is_available"`
}

type KitchenStatus string

const (
	KitchenActive      KitchenStatus = "ACTIVE"
	KitchenInactive    KitchenStatus = "INACTIVE"
	KitchenMaintenance KitchenStatus = "MAINTENANCE"
)

// Kitchen is a read-only reference record, used to resolve printer endpoints.
type Kitchen struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	UsePrinter bool          `json:"use_printer"`
	PrinterIP  *string       `json:"printer_ip,omitempty"`
	Status     KitchenStatus `json:"status"`
}
