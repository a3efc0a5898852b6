package loans

import (
	"math"
	"testing"
)

func TestMonthlyPaymentStandardFormula(t *testing.T) {
	// Known amortization: 10000 at 5% over 36 months.
	payment, err := MonthlyPayment(10000, 5, 36)
	if err != nil {
		t.Fatalf("monthly payment: %v", err)
	}
	if payment != 299.71 {
		t.Fatalf("expected 299.71, got %v", payment)
	}

	interest := TotalInterest(10000, payment, 36)
	if math.Abs(interest-789.56) > 0.01 {
		t.Fatalf("expected total interest near 789.56, got %v", interest)
	}
}

func TestMonthlyPaymentZeroRate(t *testing.T) {
	payment, err := MonthlyPayment(12000, 0, 24)
	if err != nil {
		t.Fatalf("monthly payment: %v", err)
	}
	if payment != 500 {
		t.Fatalf("expected 500, got %v", payment)
	}
}

func TestMonthlyPaymentRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name   string
		amount float64
		rate   float64
		term   int
	}{
		{"zero amount", 0, 5, 36},
		{"negative amount", -100, 5, 36},
		{"negative rate", 10000, -1, 36},
		{"zero term", 10000, 5, 0},
	}
	for _, tc := range cases {
		if _, err := MonthlyPayment(tc.amount, tc.rate, tc.term); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
