package models

import "testing"

func TestValidStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		value string
		want  bool
	}{
		{"pending", string(StatusPending), true},
		{"confirmed", string(StatusConfirmed), true},
		{"in_preparation", string(StatusInPreparation), true},
		{"ready", string(StatusReady), true},
		{"delivered", string(StatusDelivered), true},
		{"cancelled", string(StatusCancelled), true},
		{"unknown", "baking", false},
		{"empty", "", false},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ValidStatus(tt.value); got != tt.want {
				t.Fatalf("ValidStatus(%q) = %t, want %t", tt.value, got, tt.want)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	t.Parallel()

	if !StatusDelivered.Terminal() || !StatusCancelled.Terminal() {
		t.Fatal("delivered and cancelled must be terminal")
	}
	for _, s := range []OrderStatus{StatusPending, StatusConfirmed, StatusInPreparation, StatusReady} {
		if s.Terminal() {
			t.Fatalf("%s must not be terminal", s)
		}
	}
}

func TestLowStockPredicates(t *testing.T) {
	t.Parallel()

	inv := Inventory{Quantity: 10, MinStockLevel: 10}
	if !inv.LowStock() {
		t.Fatal("quantity at the minimum level must report low stock")
	}
	inv.Quantity = 11
	if inv.LowStock() {
		t.Fatal("quantity above the minimum level must not report low stock")
	}
}
