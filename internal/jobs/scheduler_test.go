package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/chaincred/chaincred/internal/chain"
	"github.com/chaincred/chaincred/internal/credit"
	"github.com/chaincred/chaincred/internal/loans"
	"github.com/chaincred/chaincred/internal/logging"
)

func TestSweepOverduePenalizesOnce(t *testing.T) {
	registry := chain.NewMemoryRegistry()
	credits := credit.NewService(registry, credit.NewMemoryRepository(), credit.StaticPredictor{}, nil, time.Minute, nil, nil)
	loanRepo := loans.NewMemoryRepository()
	sched := New(loanRepo, credits, logging.Discard())

	ctx := context.Background()
	overdue := loans.Loan{
		ID:         uuid.NewString(),
		Borrower:   "0xlate",
		Amount:     5_000,
		TermMonths: 12,
		CreatedAt:  time.Now().UTC().AddDate(-2, 0, 0),
		DueDate:    time.Now().UTC().AddDate(-1, 0, 0),
		Approved:   true,
	}
	current := loans.Loan{
		ID:         uuid.NewString(),
		Borrower:   "0xontime",
		Amount:     5_000,
		TermMonths: 12,
		CreatedAt:  time.Now().UTC(),
		DueDate:    time.Now().UTC().AddDate(1, 0, 0),
		Approved:   true,
	}
	if err := loanRepo.Create(ctx, overdue); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := loanRepo.Create(ctx, current); err != nil {
		t.Fatalf("create: %v", err)
	}

	sched.SweepOverdue(ctx)

	records, err := registry.RecordsByAddress(ctx, "0xlate")
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 1 || records[0].RecordType != chain.RecordTypeMissedPayment {
		t.Fatalf("expected one missed payment record, got %+v", records)
	}

	onTime, err := registry.RecordsByAddress(ctx, "0xontime")
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(onTime) != 0 {
		t.Fatalf("expected no penalty for current loan, got %+v", onTime)
	}

	// A second sweep must not penalize again.
	sched.SweepOverdue(ctx)
	records, err = registry.RecordsByAddress(ctx, "0xlate")
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected penalty applied once, got %d records", len(records))
	}

	updated, err := loanRepo.Get(ctx, overdue.ID)
	if err != nil {
		t.Fatalf("get loan: %v", err)
	}
	if !updated.Penalized {
		t.Fatalf("expected loan flagged penalized")
	}
}
