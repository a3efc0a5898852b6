package loans

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chaincred/chaincred/internal/chain"
	"github.com/chaincred/chaincred/internal/credit"
)

func newTestStack() (*Service, *credit.Service, chain.Registry) {
	registry := chain.NewMemoryRegistry()
	credits := credit.NewService(registry, credit.NewMemoryRepository(), credit.StaticPredictor{}, nil, time.Minute, nil, nil)
	svc := NewService(NewMemoryRepository(), credits, nil)
	return svc, credits, registry
}

func TestLoanLifecycle(t *testing.T) {
	svc, credits, registry := newTestStack()
	ctx := context.Background()

	loan, err := svc.Create(ctx, CreateInput{Borrower: "0xabc", Amount: 10_000, InterestRate: 5, TermMonths: 36})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if loan.Status() != "pending" {
		t.Fatalf("expected pending, got %s", loan.Status())
	}
	wantDue := loan.CreatedAt.AddDate(0, 36, 0)
	if !loan.DueDate.Equal(wantDue) {
		t.Fatalf("expected due date %v, got %v", wantDue, loan.DueDate)
	}

	loan, err = svc.Approve(ctx, loan.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if loan.Status() != "approved" {
		t.Fatalf("expected approved, got %s", loan.Status())
	}
	if loan.RecordID == "" {
		t.Fatalf("expected a registry record to be logged on approval")
	}

	records, err := registry.RecordsByAddress(ctx, "0xabc")
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 1 || records[0].RecordType != chain.RecordTypeLoan {
		t.Fatalf("expected one loan record, got %+v", records)
	}

	loan, err = svc.Repay(ctx, loan.ID)
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if loan.Status() != "repaid" {
		t.Fatalf("expected repaid, got %s", loan.Status())
	}

	records, err = registry.RecordsByAddress(ctx, "0xabc")
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected loan + repayment records, got %d", len(records))
	}
	if !records[0].Repaid {
		t.Fatalf("expected original loan record marked repaid")
	}

	score, err := credits.GetScore(ctx, "0xabc")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score.Value <= credit.MinScore {
		t.Fatalf("expected repayment history to lift the score, got %d", score.Value)
	}
}

func TestRepayBeforeApprove(t *testing.T) {
	svc, _, _ := newTestStack()
	ctx := context.Background()

	loan, err := svc.Create(ctx, CreateInput{Borrower: "0xabc", Amount: 1_000, InterestRate: 3, TermMonths: 12})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Repay(ctx, loan.ID); !errors.Is(err, ErrNotApproved) {
		t.Fatalf("expected ErrNotApproved, got %v", err)
	}
}

func TestDoubleApproveAndDoubleRepay(t *testing.T) {
	svc, _, _ := newTestStack()
	ctx := context.Background()

	loan, err := svc.Create(ctx, CreateInput{Borrower: "0xabc", Amount: 1_000, InterestRate: 3, TermMonths: 12})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Approve(ctx, loan.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.Approve(ctx, loan.ID); !errors.Is(err, ErrAlreadyApproved) {
		t.Fatalf("expected ErrAlreadyApproved, got %v", err)
	}

	if _, err := svc.Repay(ctx, loan.ID); err != nil {
		t.Fatalf("repay: %v", err)
	}
	if _, err := svc.Repay(ctx, loan.ID); !errors.Is(err, ErrAlreadyRepaid) {
		t.Fatalf("expected ErrAlreadyRepaid, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestStack()
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"missing borrower", CreateInput{Amount: 1000, InterestRate: 5, TermMonths: 12}},
		{"zero amount", CreateInput{Borrower: "0xabc", InterestRate: 5, TermMonths: 12}},
		{"negative rate", CreateInput{Borrower: "0xabc", Amount: 1000, InterestRate: -1, TermMonths: 12}},
		{"zero term", CreateInput{Borrower: "0xabc", Amount: 1000, InterestRate: 5}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, tc.input); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
