package orders

import "testing"

func strptr(s string) *string { return &s }

func TestTickets_SplitsByKitchen(t *testing.T) {
	o := &Order{
		OrderNumber: "150126-0001",
		Items: []OrderItem{
			{MenuName: "Sate Ayam", KitchenName: strptr("Grill"), Quantity: 2},
			{MenuName: "Es Teh", KitchenName: strptr("Bar"), Quantity: 1},
			{MenuName: "Iga Bakar", KitchenName: strptr("Grill"), Quantity: 1},
		},
	}
	ts := Tickets(o)
	if len(ts) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(ts))
	}
	// first-seen order: Grill then Bar
	if ts[0].Kitchen != "Grill" || ts[1].Kitchen != "Bar" {
		t.Fatalf("unexpected ticket order: %s, %s", ts[0].Kitchen, ts[1].Kitchen)
	}
	if len(ts[0].Items) != 2 || len(ts[1].Items) != 1 {
		t.Fatalf("unexpected item split: %d, %d", len(ts[0].Items), len(ts[1].Items))
	}
	for _, it := range ts[0].Items {
		if *it.KitchenName != "Grill" {
			t.Fatalf("Grill ticket contains %s item", *it.KitchenName)
		}
	}
}

func TestTickets_SkipsBuffetItems(t *testing.T) {
	o := &Order{
		Items: []OrderItem{
			{MenuName: "Sate Ayam", KitchenName: strptr("Grill"), IsBuffet: false},
			{MenuName: "Buffet Siang", IsBuffet: true},
		},
	}
	ts := Tickets(o)
	if len(ts) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(ts))
	}
	if ts[0].Kitchen != "Grill" || len(ts[0].Items) != 1 {
		t.Fatalf("unexpected ticket: %+v", ts[0])
	}
}

func TestTickets_BuffetOnlyOrderHasNoTickets(t *testing.T) {
	o := &Order{
		Items: []OrderItem{
			{MenuName: "Buffet Siang", IsBuffet: true},
			{MenuName: "Buffet Malam", IsBuffet: true},
		},
	}
	if ts := Tickets(o); len(ts) != 0 {
		t.Fatalf("expected no tickets, got %d", len(ts))
	}
}

func TestTickets_UnknownBucket(t *testing.T) {
	o := &Order{
		Items: []OrderItem{
			{MenuName: "Misteri", KitchenName: nil},
		},
	}
	ts := Tickets(o)
	if len(ts) != 1 || ts[0].Kitchen != UnknownKitchen {
		t.Fatalf("expected one UNKNOWN ticket, got %+v", ts)
	}
}
