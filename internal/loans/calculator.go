package loans

import (
	"errors"
	"math"
)

// MonthlyPayment computes the standard amortized monthly payment for a
// principal at an annual percentage rate over a term in months:
//
//	P = A * r * (1+r)^n / ((1+r)^n - 1), r = annualRate / 12 / 100
//
// The result is rounded to cents. Zero-rate loans amortize linearly.
func MonthlyPayment(amount float64, annualRate float64, termMonths int) (float64, error) {
	if amount <= 0 {
		return 0, errors.New("amount must be positive")
	}
	if annualRate < 0 {
		return 0, errors.New("interest rate must not be negative")
	}
	if termMonths <= 0 {
		return 0, errors.New("term must be positive")
	}

	if annualRate == 0 {
		return roundCents(amount / float64(termMonths)), nil
	}

	r := annualRate / 12 / 100
	factor := math.Pow(1+r, float64(termMonths))
	payment := amount * r * factor / (factor - 1)
	return roundCents(payment), nil
}

// TotalInterest returns the interest paid over the full term given the
// monthly payment.
func TotalInterest(amount float64, monthlyPayment float64, termMonths int) float64 {
	return roundCents(monthlyPayment*float64(termMonths) - amount)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
