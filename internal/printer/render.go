package printer

import (
	"fmt"
	"strings"
	"time"

	"github.com/sawomule/go-resto-pos.git/internal/orders"
)

// All layouts are 48 columns wide, the paper width of the floor printers.
const lineWidth = 48

const storeName = "SAWOMULE"

var separator = strings.Repeat("─", lineWidth)

// FormatRupiah renders whole-rupiah amounts with dot thousand separators,
// e.g. 1250000 -> "Rp 1.250.000".
func FormatRupiah(amount int) string {
	neg := ""
	if amount < 0 {
		neg = "-"
		amount = -amount
	}
	s := fmt.Sprintf("%d", amount)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return "Rp " + neg + strings.Join(parts, ".")
}

// fillLine pads left+right to the full width, using fill as the spacer.
func fillLine(left, right, fill string) string {
	n := lineWidth - len([]rune(left)) - len([]rune(right))
	if n < 0 {
		n = 0
	}
	return left + strings.Repeat(fill, n) + right
}

func header(d *Doc, subtitle string) {
	d.AlignCenter()
	d.Bold(true)
	d.Println(storeName)
	d.Bold(false)
	d.Println(subtitle)
	d.Println(time.Now().Format("02/01/2006 15:04:05"))
	d.AlignLeft()
	d.Println(separator)
}

func orderHeader(d *Doc, o *orders.Order) {
	d.Print("Order   : ")
	d.Bold(true)
	d.Println(o.OrderNumber)
	d.Bold(false)
	d.Println(fmt.Sprintf("Type    : %s", o.OrderType))
	if o.CustomerName != nil {
		d.Println(fmt.Sprintf("Customer: %s", *o.CustomerName))
	}
	if o.TableNumber != nil {
		d.Println(fmt.Sprintf("Table   : %s", *o.TableNumber))
	}
	if o.WaiterName != nil {
		d.Println(fmt.Sprintf("Waiter  : %s", *o.WaiterName))
	}
	d.Println(separator)
}

// RenderOrderSlip lays out a kitchen ticket or checklist: every item on its
// own line with a checkbox flushed right, notes underneath.
func RenderOrderSlip(o *orders.Order, items []orders.OrderItem, subtitle string) *Doc {
	d := NewDoc()
	header(d, subtitle)
	orderHeader(d, o)

	for _, it := range items {
		line := fmt.Sprintf("%dx %s", it.Quantity, it.MenuName)
		d.Bold(true)
		d.Println(fillLine(line, "[ ]", " "))
		d.Bold(false)
		if it.Notes != nil {
			d.Println(fmt.Sprintf("(%s)", *it.Notes))
		}
		d.Println(separator)
	}

	d.Cut()
	return d
}

// RenderReceipt lays out the customer receipt across one or more orders,
// with per-item price lines (dot fill) and the payment block (space fill).
// CASH payments kick the drawer open unless openDrawer is off (reprints).
func RenderReceipt(os []orders.Order, p *orders.Payment, openDrawer bool) *Doc {
	d := NewDoc()
	header(d, "Customer Receipt")
	if p.CashierName != nil {
		d.Println(fmt.Sprintf("Cashier : %s", *p.CashierName))
		d.Println(separator)
	}

	for i := range os {
		o := &os[i]
		d.Println(fmt.Sprintf("Order   : %s", o.OrderNumber))
		d.Println(fmt.Sprintf("Type    : %s", o.OrderType))
		if o.CustomerName != nil {
			d.Println(fmt.Sprintf("Customer: %s", *o.CustomerName))
		}
		if o.TableNumber != nil {
			d.Println(fmt.Sprintf("Table   : %s", *o.TableNumber))
		}
		d.Println(separator)

		for _, it := range o.Items {
			if it.Status == orders.StatusCancelled {
				continue
			}
			d.Bold(true)
			d.Println(fmt.Sprintf("%dx %s", it.Quantity, it.MenuName))
			d.Bold(false)
			priceText := fmt.Sprintf("%s x %d", FormatRupiah(it.MenuPrice), it.Quantity)
			d.Println(fillLine(priceText, FormatRupiah(it.MenuPrice*it.Quantity), "."))
			if it.Notes != nil {
				d.Println(fmt.Sprintf("(%s)", *it.Notes))
			}
		}
		d.Println(separator)
	}

	d.Bold(true)
	d.Println("Payment Details:")
	d.Bold(false)
	d.Println(separator)

	d.Bold(true)
	d.Println(fillLine("Total", FormatRupiah(p.TotalAmount), " "))
	d.Bold(false)
	d.Println(fillLine("Payment Method", string(p.Method), " "))
	if p.Method == orders.MethodCash {
		d.Println(fillLine("Cash", FormatRupiah(p.Cash), " "))
		d.Println(fillLine("Change", FormatRupiah(p.Change), " "))
	}
	d.Println(separator)

	d.AlignCenter()
	d.Println("")
	d.Bold(true)
	d.Println("Matur Nuwun")
	if p.Method == orders.MethodCash && openDrawer {
		d.OpenCashDrawer()
	}
	d.Cut()
	return d
}
