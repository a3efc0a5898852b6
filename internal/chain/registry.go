package chain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRecordNotFound indicates the referenced credit record does not exist
	// in the on-chain registry.
	ErrRecordNotFound = errors.New("credit record not found")

	// ErrAlreadyRepaid indicates the record's repaid flag was already set.
	// Records are immutable apart from that single flag transition.
	ErrAlreadyRepaid = errors.New("record already repaid")
)

const (
	// RecordTypeLoan marks a credit record logged when a loan is issued.
	RecordTypeLoan = "loan"
	// RecordTypeRepayment marks a record logged when a loan is repaid.
	RecordTypeRepayment = "loan_repayment"
	// RecordTypeMissedPayment marks a penalty record for an overdue loan.
	RecordTypeMissedPayment = "missed_payment"
)

// CreditRecord is a single logged financial event tied to a wallet address.
type CreditRecord struct {
	ID          string
	Address     string
	Timestamp   time.Time
	Amount      int64
	Repaid      bool
	RepaidAt    time.Time
	Provider    string
	RecordType  string
	ScoreImpact int
}

// Registry is the contract-facing interface for the credit record store.
// Calls are direct pass-throughs to the underlying node; there is no
// batching, retry or reorg handling at this layer.
type Registry interface {
	AppendRecord(ctx context.Context, record CreditRecord) (CreditRecord, error)
	MarkRepaid(ctx context.Context, recordID string, at time.Time) (CreditRecord, error)
	RecordsByAddress(ctx context.Context, address string) ([]CreditRecord, error)
	Ping(ctx context.Context) error
}

// CallObserver receives the outcome of every registry call, typically to
// feed a metrics counter. outcome is "ok" or "error".
type CallObserver func(method, outcome string)

func observe(obs CallObserver, method string, err error) {
	if obs == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	obs(method, outcome)
}
