package models

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		totalPrice int64
		paidAmount int64
		want       PaymentStatus
	}{
		{"nothing paid", 100, 0, PaymentStatusUnpaid},
		{"half paid", 100, 50, PaymentStatusPartial},
		{"exactly paid", 100, 100, PaymentStatusPaid},
		{"overpaid", 100, 150, PaymentStatusPaid},
		{"free work unpaid", 0, 0, PaymentStatusUnpaid},
		{"free work with payment", 0, 10, PaymentStatusPaid},
		{"one unit short", 100, 99, PaymentStatusPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.totalPrice, tt.paidAmount); got != tt.want {
				t.Errorf("Classify(%d, %d) = %q, want %q", tt.totalPrice, tt.paidAmount, got, tt.want)
			}
		})
	}
}

func TestContribution(t *testing.T) {
	w := WorkTransaction{TotalPrice: 1000, PaidAmount: 200}
	if got := w.Contribution(); got != 800 {
		t.Errorf("Contribution() = %d, want 800", got)
	}

	// Overpayment contributes a credit.
	w = WorkTransaction{TotalPrice: 1000, PaidAmount: 1500}
	if got := w.Contribution(); got != -500 {
		t.Errorf("Contribution() = %d, want -500", got)
	}
}

func TestWorkFilterMatches(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	work := WorkTransaction{
		ClientID:        "c1",
		TotalPrice:      100,
		PaidAmount:      50,
		TransactionDate: date,
	}

	before := date.AddDate(0, 0, -1)
	after := date.AddDate(0, 0, 1)

	tests := []struct {
		name   string
		filter WorkFilter
		want   bool
	}{
		{"empty filter", WorkFilter{}, true},
		{"matching client", WorkFilter{ClientID: "c1"}, true},
		{"other client", WorkFilter{ClientID: "c2"}, false},
		{"matching status", WorkFilter{Status: PaymentStatusPartial}, true},
		{"other status", WorkFilter{Status: PaymentStatusPaid}, false},
		{"inside date range", WorkFilter{From: &before, To: &after}, true},
		{"inclusive bounds", WorkFilter{From: &date, To: &date}, true},
		{"before range", WorkFilter{From: &after}, false},
		{"after range", WorkFilter{To: &before}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(work); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMajorUnits(t *testing.T) {
	if got := MajorUnits(12345).String(); got != "123.45" {
		t.Errorf("MajorUnits(12345) = %s, want 123.45", got)
	}
	if got := MajorUnits(-800).String(); got != "-8" {
		t.Errorf("MajorUnits(-800) = %s, want -8", got)
	}
}
