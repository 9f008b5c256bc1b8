package printer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sawomule/go-resto-pos.git/internal/orders"
)

func TestFormatRupiah(t *testing.T) {
	tests := []struct {
		amount int
		want   string
	}{
		{0, "Rp 0"},
		{500, "Rp 500"},
		{1000, "Rp 1.000"},
		{45000, "Rp 45.000"},
		{1250000, "Rp 1.250.000"},
		{1234567890, "Rp 1.234.567.890"},
		{-5000, "Rp -5.000"},
	}
	for _, tt := range tests {
		if got := FormatRupiah(tt.amount); got != tt.want {
			t.Errorf("FormatRupiah(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFillLine(t *testing.T) {
	got := fillLine("Total", "Rp 45.000", " ")
	if len([]rune(got)) != lineWidth {
		t.Fatalf("line width = %d, want %d", len([]rune(got)), lineWidth)
	}
	if !strings.HasPrefix(got, "Total ") || !strings.HasSuffix(got, " Rp 45.000") {
		t.Fatalf("bad fill: %q", got)
	}

	dotted := fillLine("Rp 10.000 x 2", "Rp 20.000", ".")
	if !strings.Contains(dotted, "...") {
		t.Fatalf("expected dot fill, got %q", dotted)
	}

	// overflow never panics, just concatenates
	long := strings.Repeat("x", lineWidth)
	if got := fillLine(long, "[ ]", " "); got != long+"[ ]" {
		t.Fatalf("overflow handling wrong: %q", got)
	}
}

func strptr(s string) *string { return &s }

func sampleOrder() *orders.Order {
	return &orders.Order{
		ID:          1,
		OrderNumber: "150126-0042",
		OrderType:   orders.TypeDineIn,
		TableNumber: strptr("A3"),
		Items: []orders.OrderItem{
			{MenuName: "Sate Ayam", MenuPrice: 10000, Quantity: 2, Status: orders.StatusReady, Notes: strptr("pedas")},
			{MenuName: "Es Teh", MenuPrice: 5000, Quantity: 1, Status: orders.StatusCancelled},
		},
	}
}

func TestRenderOrderSlip(t *testing.T) {
	o := sampleOrder()
	d := RenderOrderSlip(o, o.Items, "Grill Order Receipt")
	out := d.Bytes()

	for _, want := range []string{storeName, "Grill Order Receipt", "150126-0042", "2x Sate Ayam", "[ ]", "(pedas)", "Table   : A3"} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("slip missing %q", want)
		}
	}
	if !bytes.HasSuffix(out, escCut) {
		t.Error("slip must end with a cut")
	}
	if bytes.Contains(out, escDrawer) {
		t.Error("slips never kick the drawer")
	}
}

func TestRenderReceipt(t *testing.T) {
	o := sampleOrder()
	p := &orders.Payment{
		Method:      orders.MethodCash,
		TotalAmount: 20000,
		Cash:        50000,
		Change:      30000,
		CashierName: strptr("Rina"),
	}

	t.Run("cash with drawer", func(t *testing.T) {
		out := RenderReceipt([]orders.Order{*o}, p, true).Bytes()
		for _, want := range []string{"Customer Receipt", "Cashier : Rina", "Sate Ayam", "Rp 10.000 x 2", "Rp 20.000", "Payment Details:", "CASH", "Rp 50.000", "Rp 30.000", "Matur Nuwun"} {
			if !bytes.Contains(out, []byte(want)) {
				t.Errorf("receipt missing %q", want)
			}
		}
		if bytes.Contains(out, []byte("Es Teh")) {
			t.Error("cancelled items must not appear on the receipt")
		}
		if !bytes.Contains(out, escDrawer) {
			t.Error("cash receipt must kick the drawer")
		}
	})

	t.Run("cash reprint keeps drawer closed", func(t *testing.T) {
		out := RenderReceipt([]orders.Order{*o}, p, false).Bytes()
		if bytes.Contains(out, escDrawer) {
			t.Error("reprint must not kick the drawer")
		}
	})

	t.Run("qris has no cash block", func(t *testing.T) {
		q := &orders.Payment{Method: orders.MethodQRIS, TotalAmount: 20000}
		out := RenderReceipt([]orders.Order{*o}, q, true).Bytes()
		if bytes.Contains(out, []byte("Change")) {
			t.Error("QRIS receipt must not show change")
		}
		if bytes.Contains(out, escDrawer) {
			t.Error("QRIS never kicks the drawer")
		}
	})
}
