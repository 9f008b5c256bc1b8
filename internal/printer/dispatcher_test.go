package printer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sawomule/go-resto-pos.git/internal/orders"
)

type fakeEndpoint struct {
	mu        sync.Mutex
	connected bool
	failFirst int // fail this many sends before accepting
	sent      []*Doc
}

func (e *fakeEndpoint) IsConnected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connected
}

func (e *fakeEndpoint) Send(d *Doc) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failFirst > 0 {
		e.failFirst--
		return errors.New("write: broken pipe")
	}
	e.sent = append(e.sent, d)
	return nil
}

func (e *fakeEndpoint) sentCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sent)
}

func testDispatcher() *Dispatcher {
	d := NewDispatcher("127.0.0.1", time.Second, nil)
	d.delay = time.Millisecond
	return d
}

func ticket() orders.Ticket {
	o := sampleOrder()
	return orders.Ticket{Kitchen: "Grill", Order: o, Items: o.Items[:1]}
}

func TestPrintTicket_DeliversToKitchenEndpoint(t *testing.T) {
	d := testDispatcher()
	ep := &fakeEndpoint{connected: true}
	d.Register("Grill", ep)

	if err := d.PrintTicket(context.Background(), ticket()); err != nil {
		t.Fatalf("PrintTicket: %v", err)
	}
	if ep.sentCount() != 1 {
		t.Fatalf("sent %d docs, want 1", ep.sentCount())
	}
}

func TestPrintTicket_UnregisteredKitchen(t *testing.T) {
	d := testDispatcher()
	tk := ticket()
	tk.Kitchen = "Pastry"
	if err := d.PrintTicket(context.Background(), tk); !errors.Is(err, ErrPrinterUnavailable) {
		t.Fatalf("expected ErrPrinterUnavailable, got %v", err)
	}
}

func TestSend_RetriesThenSucceeds(t *testing.T) {
	d := testDispatcher()
	ep := &fakeEndpoint{connected: true, failFirst: 2}
	d.Register("Grill", ep)

	if err := d.PrintTicket(context.Background(), ticket()); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if ep.sentCount() != 1 {
		t.Fatalf("sent %d docs, want 1", ep.sentCount())
	}
}

func TestSend_ExhaustedRetriesIsPrintFailed(t *testing.T) {
	d := testDispatcher()
	ep := &fakeEndpoint{connected: true, failFirst: 10}
	d.Register("Grill", ep)

	err := d.PrintTicket(context.Background(), ticket())
	if !errors.Is(err, ErrPrintFailed) {
		t.Fatalf("expected ErrPrintFailed, got %v", err)
	}
}

func TestSend_DisconnectedIsUnavailable(t *testing.T) {
	d := testDispatcher()
	d.Register("Grill", &fakeEndpoint{connected: false})

	err := d.PrintTicket(context.Background(), ticket())
	if !errors.Is(err, ErrPrinterUnavailable) {
		t.Fatalf("expected ErrPrinterUnavailable, got %v", err)
	}
}

type fakeKitchens struct{ ks []orders.Kitchen }

func (f *fakeKitchens) ListActiveKitchens(ctx context.Context) ([]orders.Kitchen, error) {
	return f.ks, nil
}

func TestRefresh_RebuildsKitchensKeepsCashier(t *testing.T) {
	ip := "10.0.0.5"
	src := &fakeKitchens{ks: []orders.Kitchen{
		{ID: 1, Name: "Grill", PrinterIP: &ip},
		{ID: 2, Name: "Bar"}, // no IP configured, skipped
	}}
	d := NewDispatcher("127.0.0.1", time.Second, src)
	d.delay = time.Millisecond
	stale := &fakeEndpoint{connected: true}
	d.Register("OldKitchen", stale)

	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if d.endpoint(Cashier) == nil {
		t.Fatal("cashier endpoint must survive a refresh")
	}
	if d.endpoint("Grill") == nil {
		t.Fatal("active kitchen with an IP must be registered")
	}
	if d.endpoint("Bar") != nil {
		t.Fatal("kitchen without an IP must be skipped")
	}
	if d.endpoint("OldKitchen") != nil {
		t.Fatal("endpoints absent from the read model must be dropped")
	}

	// receipts keep flowing through the cashier entry after a swap
	ep := &fakeEndpoint{connected: true}
	d.Register(Cashier, ep)
	p := &orders.Payment{Method: orders.MethodQRIS, TotalAmount: 20000}
	if err := d.PrintReceipt(context.Background(), []orders.Order{*sampleOrder()}, p, false); err != nil {
		t.Fatalf("PrintReceipt: %v", err)
	}
	if ep.sentCount() != 1 {
		t.Fatalf("sent %d receipts, want 1", ep.sentCount())
	}
}

func TestPrintChecklist_UsesTarget(t *testing.T) {
	d := testDispatcher()
	bar := &fakeEndpoint{connected: true}
	d.Register("Bar", bar)

	if err := d.PrintChecklist(context.Background(), sampleOrder(), "Bar"); err != nil {
		t.Fatalf("PrintChecklist: %v", err)
	}
	if bar.sentCount() != 1 {
		t.Fatalf("sent %d docs, want 1", bar.sentCount())
	}
}
