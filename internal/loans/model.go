package loans

import (
	"errors"
	"time"
)

var (
	// ErrLoanNotFound indicates the loan does not exist.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrNotApproved is returned when repaying a loan still pending approval.
	ErrNotApproved = errors.New("loan not approved")

	// ErrAlreadyApproved is returned on a second approval attempt.
	ErrAlreadyApproved = errors.New("loan already approved")

	// ErrAlreadyRepaid is returned on a second repayment attempt.
	ErrAlreadyRepaid = errors.New("loan already repaid")
)

// Loan is a borrowing agreement keyed to the borrower's wallet address.
// Its lifecycle is the flag sequence pending -> approved -> repaid.
type Loan struct {
	ID           string
	Borrower     string
	Amount       int64
	InterestRate float64
	TermMonths   int
	CreatedAt    time.Time
	DueDate      time.Time
	Approved     bool
	Repaid       bool
	Penalized    bool
	// RecordID references the credit record logged in the on-chain
	// registry when the loan was approved.
	RecordID string
}

// Status renders the flag pair as a lifecycle label.
func (l Loan) Status() string {
	switch {
	case l.Repaid:
		return "repaid"
	case l.Approved:
		return "approved"
	default:
		return "pending"
	}
}
