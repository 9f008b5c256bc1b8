package printer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sawomule/go-resto-pos.git/internal/orders"
	"github.com/sawomule/go-resto-pos.git/internal/retry"
)

// Cashier is the fixed registry key for the front-desk printer.
const Cashier = "KASIR"

var (
	ErrPrinterUnavailable = errors.New("printer unavailable")
	ErrPrintFailed        = errors.New("print failed")
)

const (
	sendAttempts = 3
	sendDelay    = time.Second
)

type KitchenSource interface {
	ListActiveKitchens(ctx context.Context) ([]orders.Kitchen, error)
}

// Dispatcher owns one endpoint per printer identity: the cashier printer plus
// one per ACTIVE printer-enabled kitchen. The kitchen set is re-read on a
// timer so a kitchen reconfiguration does not need a restart.
type Dispatcher struct {
	Kitchens KitchenSource

	timeout  time.Duration
	attempts int
	delay    time.Duration

	mu    sync.RWMutex
	conns map[string]Endpoint
}

func NewDispatcher(cashierIP string, timeout time.Duration, ks KitchenSource) *Dispatcher {
	d := &Dispatcher{
		Kitchens: ks,
		timeout:  timeout,
		attempts: sendAttempts,
		delay:    sendDelay,
		conns:    map[string]Endpoint{},
	}
	d.conns[Cashier] = NewConn(cashierIP, timeout)
	return d
}

// Register swaps in an endpoint under the given identity.
func (d *Dispatcher) Register(name string, ep Endpoint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.conns[name] = ep
}

// Refresh rebuilds the kitchen side of the registry from the read model.
// The cashier entry always survives.
func (d *Dispatcher) Refresh(ctx context.Context) error {
	if d.Kitchens == nil {
		return nil
	}
	ks, err := d.Kitchens.ListActiveKitchens(ctx)
	if err != nil {
		return fmt.Errorf("list kitchens: %w", err)
	}

	next := map[string]Endpoint{}
	d.mu.RLock()
	next[Cashier] = d.conns[Cashier]
	d.mu.RUnlock()

	for _, k := range ks {
		if k.PrinterIP == nil || *k.PrinterIP == "" {
			continue
		}
		next[k.Name] = NewConn(*k.PrinterIP, d.timeout)
	}

	d.mu.Lock()
	d.conns = next
	d.mu.Unlock()
	return nil
}

// RunRefresh re-registers kitchen printers on a cadence until ctx ends.
func (d *Dispatcher) RunRefresh(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := d.Refresh(ctx); err != nil {
				log.Printf("printer refresh: %v", err)
			}
		}
	}
}

func (d *Dispatcher) endpoint(name string) Endpoint {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.conns[name]
}

// send checks connectivity, then transmits with a bounded retry. Callers on
// the business path treat any returned error as non-fatal.
func (d *Dispatcher) send(ctx context.Context, name string, doc *Doc) error {
	ep := d.endpoint(name)
	if ep == nil {
		return fmt.Errorf("%w: no printer registered for %q", ErrPrinterUnavailable, name)
	}
	err := retry.Do(ctx, d.attempts, d.delay, func() error {
		if !ep.IsConnected() {
			return fmt.Errorf("%w: %s", ErrPrinterUnavailable, name)
		}
		return ep.Send(doc)
	})
	if err == nil || errors.Is(err, ErrPrinterUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrPrintFailed, name, err)
}

func (d *Dispatcher) PrintTicket(ctx context.Context, t orders.Ticket) error {
	doc := RenderOrderSlip(t.Order, t.Items, fmt.Sprintf("%s Order Receipt", t.Kitchen))
	return d.send(ctx, t.Kitchen, doc)
}

func (d *Dispatcher) PrintChecklist(ctx context.Context, o *orders.Order, target string) error {
	doc := RenderOrderSlip(o, o.Items, "Order Checklist")
	return d.send(ctx, target, doc)
}

func (d *Dispatcher) PrintReceipt(ctx context.Context, os []orders.Order, p *orders.Payment, openDrawer bool) error {
	doc := RenderReceipt(os, p, openDrawer)
	return d.send(ctx, Cashier, doc)
}
