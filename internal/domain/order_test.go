package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPaymentStatusFromGateway(t *testing.T) {
	tests := []struct {
		in   string
		want PaymentStatus
	}{
		{"succeeded", PaymentStatusPaid},
		{"canceled", PaymentStatusFailed},
		{"pending", PaymentStatusPending},
		{"waiting_for_capture", PaymentStatusPending},
		{"", PaymentStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := PaymentStatusFromGateway(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestOrderStatus_Valid(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusNew, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled} {
		if !s.Valid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []OrderStatus{"", "pending", "NEW"} {
		if s.Valid() {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestLineItem_Total(t *testing.T) {
	item := LineItem{Name: "Rose Bouquet", Quantity: 2, Price: decimal.NewFromInt(1500)}
	if !item.Total().Equal(decimal.NewFromInt(3000)) {
		t.Errorf("expected 3000, got %s", item.Total())
	}
}
