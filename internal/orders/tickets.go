package orders

// UnknownKitchen is the bucket for non-buffet items whose snapshot carries no
// kitchen assignment.
const UnknownKitchen = "UNKNOWN"

// Ticket is the per-kitchen slice of an order sent to that kitchen's printer.
type Ticket struct {
	Kitchen string
	Order   *Order
	Items   []OrderItem
}

// Tickets partitions the order's items by snapshotted kitchen name. Buffet
// items need no preparation and are skipped entirely; an order of only buffet
// items yields no tickets. Tickets come out in the order their kitchen is
// first seen while scanning the items.
func Tickets(o *Order) []Ticket {
	byKitchen := map[string]int{}
	var out []Ticket
	for _, it := range o.Items {
		if it.IsBuffet {
			continue
		}
		name := UnknownKitchen
		if it.KitchenName != nil && *it.KitchenName != "" {
			name = *it.KitchenName
		}
		idx, ok := byKitchen[name]
		if !ok {
			idx = len(out)
			byKitchen[name] = idx
			out = append(out, Ticket{Kitchen: name, Order: o})
		}
		out[idx].Items = append(out[idx].Items, it)
	}
	return out
}
