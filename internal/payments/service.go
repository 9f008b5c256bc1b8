package payments

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/sawomule/go-resto-pos.git/internal/kafka"
	"github.com/sawomule/go-resto-pos.git/internal/orders"
)

var (
	// ErrAlreadySettled: the requested set overlaps an order that already has
	// a payment (or does not exist). No payment record is created.
	ErrAlreadySettled   = errors.New("one or more orders not found or already paid")
	ErrInsufficientCash = errors.New("insufficient cash amount")
)

type Store interface {
	// UnpaidOrders loads the orders in ids that have no payment yet,
	// items included.
	UnpaidOrders(ctx context.Context, ids []int64) ([]orders.Order, error)

	// CompleteOrders force-marks the ids COMPLETED. Used as idempotent
	// cleanup when a settlement request overlaps already-paid orders.
	CompleteOrders(ctx context.Context, ids []int64) error

	// Settle creates the payment and stamps payment_id + COMPLETED on every
	// order, all in one transaction.
	Settle(ctx context.Context, p *orders.Payment, ids []int64) error

	GetPayment(ctx context.Context, id int64) (*orders.Payment, error)
	OrdersByPayment(ctx context.Context, paymentID int64) ([]orders.Order, error)
	ListPayments(ctx context.Context, method orders.PaymentMethod, from, to *time.Time) ([]orders.Payment, error)
}

type ReceiptPrinter interface {
	PrintReceipt(ctx context.Context, os []orders.Order, p *orders.Payment, openDrawer bool) error
}

type Service struct {
	Store       Store
	Printer     ReceiptPrinter        // nil disables printing
	Producer    orders.EventPublisher // nil disables events
	ServiceName string
}

type SettleRequest struct {
	OrderIDs  []int64              `json:"order"`
	Method    orders.PaymentMethod `json:"method"`
	CashierID int64                `json:"cashier_id"`
	Cash      int                  `json:"cash"`
}

type SettleResult struct {
	Payment     *orders.Payment `json:"payment"`
	TotalAmount int             `json:"total_amount"`
	Change      *int            `json:"change,omitempty"`
}

// Settle pays off one or more orders with a single payment. The payment row
// and the order updates commit together or not at all; the receipt print is
// best-effort afterwards.
func (s *Service) Settle(ctx context.Context, req SettleRequest) (*SettleResult, error) {
	if req.Method != orders.MethodCash && req.Method != orders.MethodQRIS {
		return nil, orders.ValidationError{Field: "method", Message: "must be CASH or QRIS"}
	}
	if len(req.OrderIDs) == 0 {
		return nil, orders.ValidationError{Field: "order", Message: "order ids must be provided"}
	}

	unpaid, err := s.Store.UnpaidOrders(ctx, req.OrderIDs)
	if err != nil {
		return nil, err
	}
	if len(unpaid) != len(req.OrderIDs) {
		// Someone beat us to part of the set. Close out the whole request
		// (idempotent) and refuse to double-charge.
		if err := s.Store.CompleteOrders(ctx, req.OrderIDs); err != nil {
			return nil, err
		}
		return nil, ErrAlreadySettled
	}

	total := 0
	for _, o := range unpaid {
		total += OrderTotal(&o)
	}

	if req.Method == orders.MethodCash && req.Cash < total {
		return nil, ErrInsufficientCash
	}

	p := &orders.Payment{
		CashierID:   req.CashierID,
		Method:      req.Method,
		TotalAmount: total,
	}
	if req.Method == orders.MethodCash {
		p.Cash = req.Cash
		p.Change = req.Cash - total
	}
	if err := s.Store.Settle(ctx, p, req.OrderIDs); err != nil {
		return nil, err
	}

	s.publishSettled(p, req.OrderIDs)
	go s.printReceipt(unpaid, p, true)

	res := &SettleResult{Payment: p, TotalAmount: total}
	if req.Method == orders.MethodCash {
		change := p.Change
		res.Change = &change
	}
	return res, nil
}

// OrderTotal sums menu_price * quantity over the order's items, skipping
// cancelled ones.
func OrderTotal(o *orders.Order) int {
	total := 0
	for _, it := range o.Items {
		if it.Status == orders.StatusCancelled {
			continue
		}
		total += it.MenuPrice * it.Quantity
	}
	return total
}

func (s *Service) GetPayment(ctx context.Context, id int64) (*orders.Payment, error) {
	return s.Store.GetPayment(ctx, id)
}

func (s *Service) ListPayments(ctx context.Context, method orders.PaymentMethod, from, to *time.Time) ([]orders.Payment, error) {
	if method != "" && method != orders.MethodCash && method != orders.MethodQRIS {
		return nil, orders.ValidationError{Field: "payment_method", Message: "must be CASH or QRIS"}
	}
	return s.Store.ListPayments(ctx, method, from, to)
}

// Reprint re-sends the customer receipt for an existing payment. No drawer
// kick on reprints; here a printer failure does surface to the caller.
func (s *Service) Reprint(ctx context.Context, paymentID int64) error {
	os, err := s.Store.OrdersByPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if len(os) == 0 {
		return orders.ErrNotFound
	}
	p, err := s.Store.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if s.Printer == nil {
		return nil
	}
	return s.Printer.PrintReceipt(ctx, os, p, false)
}

func (s *Service) printReceipt(os []orders.Order, p *orders.Payment, openDrawer bool) {
	if s.Printer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Printer.PrintReceipt(ctx, os, p, openDrawer); err != nil {
		log.Printf("print receipt payment=%d: %v", p.ID, err)
	}
}

func (s *Service) publishSettled(p *orders.Payment, ids []int64) {
	if s.Producer == nil {
		return
	}
	ev := orders.Envelope{
		EventID:      uuid.NewString(),
		EventType:    orders.EventPaymentSettled,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     s.ServiceName,
		Payload: kafkax.MustMarshal(orders.PaymentSettledPayload{
			PaymentID:   p.ID,
			OrderIDs:    ids,
			Method:      p.Method,
			TotalAmount: p.TotalAmount,
			Change:      p.Change,
		}),
	}
	s.Producer.Publish(orders.PartitionKey(ids[0]), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventPaymentSettled)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
