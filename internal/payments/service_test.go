package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sawomule/go-resto-pos.git/internal/orders"
)

type fakeStore struct {
	mu        sync.Mutex
	orders    map[int64]*orders.Order
	payments  map[int64]*orders.Payment
	nextPayID int64
	completed []int64 // ids passed to CompleteOrders
}

func newFakeStore(os ...*orders.Order) *fakeStore {
	f := &fakeStore{
		orders:   map[int64]*orders.Order{},
		payments: map[int64]*orders.Payment{},
	}
	for _, o := range os {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeStore) UnpaidOrders(ctx context.Context, ids []int64) ([]orders.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []orders.Order
	for _, id := range ids {
		if o, ok := f.orders[id]; ok && o.PaymentID == nil {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeStore) CompleteOrders(ctx context.Context, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, ids...)
	for _, id := range ids {
		if o, ok := f.orders[id]; ok {
			o.Status = orders.StatusCompleted
		}
	}
	return nil
}

// Settle applies all-or-nothing, like the transactional repo: an order that
// picked up a payment since the unpaid read fails the whole call.
func (f *fakeStore) Settle(ctx context.Context, p *orders.Payment, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	updatable := 0
	for _, id := range ids {
		if o, ok := f.orders[id]; ok && o.PaymentID == nil {
			updatable++
		}
	}
	if updatable != len(ids) {
		return fmt.Errorf("mark orders paid: expected %d orders, updated %d", len(ids), updatable)
	}
	f.nextPayID++
	p.ID = f.nextPayID
	p.CreatedAt = time.Now()
	f.payments[p.ID] = p
	for _, id := range ids {
		o := f.orders[id]
		o.PaymentID = &p.ID
		o.Status = orders.StatusCompleted
	}
	return nil
}

func (f *fakeStore) GetPayment(ctx context.Context, id int64) (*orders.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) OrdersByPayment(ctx context.Context, paymentID int64) ([]orders.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []orders.Order
	for _, o := range f.orders {
		if o.PaymentID != nil && *o.PaymentID == paymentID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeStore) ListPayments(ctx context.Context, method orders.PaymentMethod, from, to *time.Time) ([]orders.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []orders.Payment
	for _, p := range f.payments {
		if method == "" || p.Method == method {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeReceiptPrinter struct {
	mu     sync.Mutex
	prints []bool // openDrawer per call
	err    error
}

func (p *fakeReceiptPrinter) PrintReceipt(ctx context.Context, os []orders.Order, pay *orders.Payment, openDrawer bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prints = append(p.prints, openDrawer)
	return p.err
}

func order(id int64, prices ...int) *orders.Order {
	o := &orders.Order{ID: id, OrderNumber: "300826-0001", Status: orders.StatusReady}
	for i, price := range prices {
		o.Items = append(o.Items, orders.OrderItem{
			ID:        id*100 + int64(i),
			OrderID:   id,
			MenuPrice: price,
			Quantity:  1,
			Status:    orders.StatusReady,
		})
	}
	return o
}

func TestSettle_CashAcrossTwoOrders(t *testing.T) {
	f := newFakeStore(order(1, 20000), order(2, 25000))
	svc := &Service{Store: f}

	res, err := svc.Settle(context.Background(), SettleRequest{
		OrderIDs:  []int64{1, 2},
		Method:    orders.MethodCash,
		CashierID: 3,
		Cash:      50000,
	})
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if res.TotalAmount != 45000 {
		t.Fatalf("total = %d, want 45000", res.TotalAmount)
	}
	if res.Change == nil || *res.Change != 5000 {
		t.Fatalf("change = %v, want 5000", res.Change)
	}

	p1, p2 := f.orders[1].PaymentID, f.orders[2].PaymentID
	if p1 == nil || p2 == nil || *p1 != *p2 {
		t.Fatalf("both orders must share one payment, got %v / %v", p1, p2)
	}
	if f.orders[1].Status != orders.StatusCompleted || f.orders[2].Status != orders.StatusCompleted {
		t.Fatal("settled orders must be COMPLETED")
	}
}

func TestSettle_QRISHasNoCashOrChange(t *testing.T) {
	f := newFakeStore(order(1, 30000))
	svc := &Service{Store: f}

	res, err := svc.Settle(context.Background(), SettleRequest{
		OrderIDs:  []int64{1},
		Method:    orders.MethodQRIS,
		CashierID: 3,
	})
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if res.Change != nil {
		t.Fatalf("QRIS settlement must not report change, got %d", *res.Change)
	}
	if res.Payment.Cash != 0 || res.Payment.Change != 0 {
		t.Fatalf("QRIS payment carries cash fields: %+v", res.Payment)
	}
}

func TestSettle_InsufficientCash(t *testing.T) {
	f := newFakeStore(order(1, 45000))
	svc := &Service{Store: f}

	_, err := svc.Settle(context.Background(), SettleRequest{
		OrderIDs:  []int64{1},
		Method:    orders.MethodCash,
		CashierID: 3,
		Cash:      40000,
	})
	if !errors.Is(err, ErrInsufficientCash) {
		t.Fatalf("expected ErrInsufficientCash, got %v", err)
	}
	if f.orders[1].PaymentID != nil {
		t.Fatal("failed settlement must leave the order unpaid")
	}
	if len(f.payments) != 0 {
		t.Fatal("no payment record may exist after a failed settlement")
	}
}

func TestSettle_AlreadyPaidOverlap(t *testing.T) {
	paid := order(1, 10000)
	pid := int64(99)
	paid.PaymentID = &pid
	f := newFakeStore(paid, order(2, 15000))
	svc := &Service{Store: f}

	_, err := svc.Settle(context.Background(), SettleRequest{
		OrderIDs:  []int64{1, 2},
		Method:    orders.MethodCash,
		CashierID: 3,
		Cash:      100000,
	})
	if !errors.Is(err, ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}
	if len(f.completed) != 2 {
		t.Fatalf("overlap must complete the whole request, completed=%v", f.completed)
	}
	if f.orders[2].PaymentID != nil {
		t.Fatal("no new payment may be attached on overlap")
	}
	if len(f.payments) != 0 {
		t.Fatal("no payment record may be created on overlap")
	}
}

// raceStore pays one of the orders right after the unpaid read, like a second
// cashier committing between load and settle.
type raceStore struct {
	*fakeStore
	once sync.Once
}

func (r *raceStore) UnpaidOrders(ctx context.Context, ids []int64) ([]orders.Order, error) {
	out, err := r.fakeStore.UnpaidOrders(ctx, ids)
	r.once.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		pid := int64(77)
		r.orders[ids[len(ids)-1]].PaymentID = &pid
	})
	return out, err
}

func TestSettle_LosesRaceToConcurrentPayment(t *testing.T) {
	f := newFakeStore(order(1, 20000), order(2, 25000))
	svc := &Service{Store: &raceStore{fakeStore: f}}

	_, err := svc.Settle(context.Background(), SettleRequest{
		OrderIDs:  []int64{1, 2},
		Method:    orders.MethodCash,
		CashierID: 3,
		Cash:      50000,
	})
	if err == nil {
		t.Fatal("expected the settle transaction to fail")
	}
	if f.orders[1].PaymentID != nil {
		t.Fatal("losing the race must not stamp any order")
	}
	if len(f.payments) != 0 {
		t.Fatal("losing the race must not keep a payment record")
	}
}

func TestSettle_Validation(t *testing.T) {
	f := newFakeStore(order(1, 10000))
	svc := &Service{Store: f}
	ctx := context.Background()

	tests := []struct {
		name string
		req  SettleRequest
	}{
		{"bad method", SettleRequest{OrderIDs: []int64{1}, Method: "CARD", Cash: 10000}},
		{"no orders", SettleRequest{Method: orders.MethodCash, Cash: 10000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Settle(ctx, tt.req)
			var ve orders.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestOrderTotal_SkipsCancelledItems(t *testing.T) {
	o := order(1, 20000, 5000)
	o.Items[1].Status = orders.StatusCancelled
	o.Items[0].Quantity = 2
	if got := OrderTotal(o); got != 40000 {
		t.Fatalf("OrderTotal = %d, want 40000", got)
	}
}

func TestReprint(t *testing.T) {
	f := newFakeStore(order(1, 20000))
	svc := &Service{Store: f}
	ctx := context.Background()

	if _, err := svc.Settle(ctx, SettleRequest{
		OrderIDs: []int64{1}, Method: orders.MethodQRIS, CashierID: 3,
	}); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	p := &fakeReceiptPrinter{}
	svc = &Service{Store: f, Printer: p}
	if err := svc.Reprint(ctx, 1); err != nil {
		t.Fatalf("Reprint: %v", err)
	}
	p.mu.Lock()
	if len(p.prints) != 1 || p.prints[0] {
		p.mu.Unlock()
		t.Fatalf("reprint must run once without the drawer, got %v", p.prints)
	}
	p.mu.Unlock()

	t.Run("unknown payment", func(t *testing.T) {
		if err := svc.Reprint(ctx, 42); !errors.Is(err, orders.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("printer failure surfaces", func(t *testing.T) {
		p.err = errors.New("offline")
		if err := svc.Reprint(ctx, 1); err == nil {
			t.Fatal("expected printer error to propagate")
		}
	})
}
