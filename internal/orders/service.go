package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/sawomule/go-resto-pos.git/internal/kafka"
	"github.com/sawomule/go-resto-pos.git/internal/retry"
)

// Store is the persistence surface the lifecycle needs. The pgx
// implementation lives in repo.go; tests plug in an in-memory fake.
type Store interface {
	GetTable(ctx context.Context, id int64) (*Table, error)
	SetTableAvailable(ctx context.Context, id int64, available bool) error

	// ResolveMenus returns immutable snapshots for the given menu ids.
	// Ids with no matching menu are simply absent from the map.
	ResolveMenus(ctx context.Context, ids []int64) (map[int64]MenuSnapshot, error)

	// LastOrderNumber returns the highest order number with the given date
	// prefix, or "" when the day has no orders yet.
	LastOrderNumber(ctx context.Context, prefix string) (string, error)

	// InsertOrder persists the order with its items and fills generated ids.
	// A same-day number collision surfaces as ErrDuplicateOrderNumber.
	InsertOrder(ctx context.Context, o *Order) error

	GetOrder(ctx context.Context, id int64) (*Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*Order, error)
	ListOrders(ctx context.Context, status Status) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status Status) error

	InsertItems(ctx context.Context, orderID int64, items []OrderItem) error
	GetItem(ctx context.Context, id int64) (*OrderItem, error)
	DeleteItem(ctx context.Context, id int64) error
	UpdateItemStatus(ctx context.Context, id int64, status Status) error
}

// TicketPrinter is the print-dispatch boundary. Failures are logged here and
// never bubble into the business write.
type TicketPrinter interface {
	PrintTicket(ctx context.Context, t Ticket) error
	PrintChecklist(ctx context.Context, o *Order, target string) error
}

type EventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Store           Store
	Printer         TicketPrinter  // nil disables printing
	CreatedProducer EventPublisher // nil disables events
	StatusProducer  EventPublisher
	ServiceName     string
}

type ItemInput struct {
	MenuID   int64   `json:"menu_id"`
	Quantity int     `json:"quantity"`
	Notes    *string `json:"notes,omitempty"`
}

type CreateOrderRequest struct {
	OrderType    OrderType   `json:"order_type"`
	TableID      *int64      `json:"table_id,omitempty"`
	CustomerName *string     `json:"customer_name,omitempty"`
	WaiterID     int64       `json:"waiter_id"`
	Items        []ItemInput `json:"order_items"`
}

const (
	allocAttempts = 5
	allocDelay    = 50 * time.Millisecond
)

// CreateOrder validates the request, snapshots the menus, allocates a daily
// order number and persists the order as IN_PROGRESS. Kitchen tickets go out
// afterwards, best-effort.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if req.OrderType != TypeDineIn && req.OrderType != TypeTakeaway {
		return nil, ValidationError{Field: "order_type", Message: "must be DINE_IN or TAKEAWAY"}
	}
	if len(req.Items) == 0 {
		return nil, ValidationError{Field: "order_items", Message: "at least one item is required"}
	}
	for i, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, ValidationError{Field: fmt.Sprintf("order_items[%d].quantity", i), Message: "must be greater than 0"}
		}
	}
	if req.OrderType == TypeDineIn && req.TableID == nil {
		return nil, ValidationError{Field: "table_id", Message: "table is required for dine-in orders"}
	}

	var tableNumber *string
	if req.TableID != nil {
		table, err := s.Store.GetTable(ctx, *req.TableID)
		if err != nil {
			return nil, err
		}
		if !table.IsAvailable {
			return nil, ValidationError{Field: "table_id", Message: "table is not available"}
		}
		tableNumber = &table.TableNumber
	}

	items, err := s.buildItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	o := &Order{
		OrderType:    req.OrderType,
		Status:       StatusInProgress,
		TableID:      req.TableID,
		TableNumber:  tableNumber,
		CustomerName: req.CustomerName,
		WaiterID:     req.WaiterID,
		Items:        items,
	}

	// Two creations racing on the same day can read the same last counter;
	// the unique index on order_number breaks the tie and we re-allocate.
	err = retry.Do(ctx, allocAttempts, allocDelay, func() error {
		prefix := DatePrefix(time.Now())
		last, err := s.Store.LastOrderNumber(ctx, prefix)
		if err != nil {
			return retry.Stop(err)
		}
		num, err := NextOrderNumber(prefix, last)
		if err != nil {
			return retry.Stop(err)
		}
		o.OrderNumber = num
		if err := s.Store.InsertOrder(ctx, o); err != nil {
			if errors.Is(err, ErrDuplicateOrderNumber) {
				return err
			}
			return retry.Stop(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.publish(s.CreatedProducer, EventOrderCreated, o.OrderNumber, o.ID, OrderCreatedPayload{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		OrderType:   o.OrderType,
		Status:      o.Status,
		TableID:     o.TableID,
		WaiterID:    o.WaiterID,
		ItemCount:   len(o.Items),
	})

	go s.printTickets(o)

	return o, nil
}

func (s *Service) buildItems(ctx context.Context, inputs []ItemInput) ([]OrderItem, error) {
	ids := make([]int64, 0, len(inputs))
	for _, it := range inputs {
		ids = append(ids, it.MenuID)
	}
	snaps, err := s.Store.ResolveMenus(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]OrderItem, 0, len(inputs))
	for _, it := range inputs {
		snap, ok := snaps[it.MenuID]
		if !ok {
			return nil, fmt.Errorf("%w: menu %d", ErrNotFound, it.MenuID)
		}
		items = append(items, OrderItem{
			MenuID:       snap.MenuID,
			MenuName:     snap.MenuName,
			MenuPrice:    snap.MenuPrice,
			CategoryID:   snap.CategoryID,
			CategoryName: snap.CategoryName,
			KitchenID:    snap.KitchenID,
			KitchenName:  snap.KitchenName,
			IsBuffet:     snap.IsBuffet,
			Quantity:     it.Quantity,
			Status:       InitialItemStatus(snap.IsBuffet),
			Notes:        it.Notes,
		})
	}
	return items, nil
}

// printTickets fans the order out to kitchen printers. One kitchen failing
// must not stop the others, so errors only get logged.
func (s *Service) printTickets(o *Order) {
	if s.Printer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, t := range Tickets(o) {
		if err := s.Printer.PrintTicket(ctx, t); err != nil {
			log.Printf("print ticket %s kitchen=%s: %v", o.OrderNumber, t.Kitchen, err)
		}
	}
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*Order, error) {
	return s.Store.GetOrder(ctx, id)
}

func (s *Service) GetOrderByNumber(ctx context.Context, number string) (*Order, error) {
	return s.Store.GetOrderByNumber(ctx, number)
}

func (s *Service) ListOrders(ctx context.Context, status Status) ([]Order, error) {
	if status != "" && !ValidStatus(status) {
		return nil, ValidationError{Field: "status", Message: "must be one of PENDING, IN_PROGRESS, READY, COMPLETED, CANCELLED"}
	}
	return s.Store.ListOrders(ctx, status)
}

// SetOrderStatus applies an explicit transition. Completing or cancelling a
// dine-in order also frees its table.
func (s *Service) SetOrderStatus(ctx context.Context, id int64, status Status) (*Order, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	o, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, o.Status, status)
	}
	if err := s.Store.UpdateOrderStatus(ctx, id, status); err != nil {
		return nil, err
	}
	o.Status = status

	if Terminal(status) && o.TableID != nil {
		if err := s.Store.SetTableAvailable(ctx, *o.TableID, true); err != nil {
			return nil, fmt.Errorf("release table: %w", err)
		}
	}

	s.publish(s.StatusProducer, EventOrderStatusChanged, o.OrderNumber, o.ID, OrderStatusChangedPayload{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      status,
	})
	return o, nil
}

// AddItems appends snapshotted items to an open order.
func (s *Service) AddItems(ctx context.Context, orderID int64, inputs []ItemInput) (*Order, error) {
	if len(inputs) == 0 {
		return nil, ValidationError{Field: "order_items", Message: "at least one item is required"}
	}
	for i, it := range inputs {
		if it.Quantity <= 0 {
			return nil, ValidationError{Field: fmt.Sprintf("order_items[%d].quantity", i), Message: "must be greater than 0"}
		}
	}
	o, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if Terminal(o.Status) {
		return nil, fmt.Errorf("%w: cannot add items", ErrInvalidState)
	}
	items, err := s.buildItems(ctx, inputs)
	if err != nil {
		return nil, err
	}
	if err := s.Store.InsertItems(ctx, orderID, items); err != nil {
		return nil, err
	}
	return s.Store.GetOrder(ctx, orderID)
}

func (s *Service) RemoveItem(ctx context.Context, orderID, itemID int64) error {
	o, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if Terminal(o.Status) {
		return fmt.Errorf("%w: cannot remove items", ErrInvalidState)
	}
	item, err := s.Store.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.OrderID != orderID {
		return fmt.Errorf("%w: item %d", ErrNotFound, itemID)
	}
	return s.Store.DeleteItem(ctx, itemID)
}

// SetItemStatus updates one item and then re-checks the parent: once every
// sibling is COMPLETED or CANCELLED the order completes automatically. The
// check runs after every item write, so a transient race between two last
// items resolves itself on whichever update lands later.
func (s *Service) SetItemStatus(ctx context.Context, itemID int64, status Status) (*OrderItem, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	item, err := s.Store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(item.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, item.Status, status)
	}
	if err := s.Store.UpdateItemStatus(ctx, itemID, status); err != nil {
		return nil, err
	}
	item.Status = status

	o, err := s.Store.GetOrder(ctx, item.OrderID)
	if err != nil {
		return nil, err
	}
	if err := s.completeIfAllDone(ctx, o); err != nil {
		return nil, err
	}

	s.publish(s.StatusProducer, EventItemStatusChanged, o.OrderNumber, item.OrderID, ItemStatusChangedPayload{
		OrderID: item.OrderID,
		ItemID:  item.ID,
		Status:  status,
	})
	return item, nil
}

func (s *Service) completeIfAllDone(ctx context.Context, o *Order) error {
	for _, it := range o.Items {
		if !Terminal(it.Status) {
			return nil
		}
	}
	if Terminal(o.Status) {
		return nil
	}
	if err := s.Store.UpdateOrderStatus(ctx, o.ID, StatusCompleted); err != nil {
		return err
	}
	if o.TableID != nil {
		if err := s.Store.SetTableAvailable(ctx, *o.TableID, true); err != nil {
			return fmt.Errorf("release table: %w", err)
		}
	}
	s.publish(s.StatusProducer, EventOrderStatusChanged, o.OrderNumber, o.ID, OrderStatusChangedPayload{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      StatusCompleted,
	})
	return nil
}

// PrintChecklist sends the whole order to the cashier printer, or to the bar
// printer for tables outside the "A" block.
func (s *Service) PrintChecklist(ctx context.Context, orderID int64) error {
	o, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if s.Printer == nil {
		return nil
	}
	target := "KASIR"
	if o.TableNumber != nil && !startsWithA(*o.TableNumber) {
		target = "Bar"
	}
	return s.Printer.PrintChecklist(ctx, o, target)
}

func startsWithA(s string) bool {
	return len(s) > 0 && s[0] == 'A'
}

func (s *Service) publish(p EventPublisher, eventType, orderNumber string, orderID int64, payload any) {
	if p == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: orderNumber,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
