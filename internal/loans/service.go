package loans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chaincred/chaincred/internal/chain"
	"github.com/chaincred/chaincred/internal/credit"
	"github.com/chaincred/chaincred/internal/notification"
)

// Score impacts logged with loan lifecycle records. New debt weighs the
// score down slightly; repayment more than recovers it.
const (
	issueImpact = -10
	repayImpact = 25
)

const providerName = "chaincred"

// Service manages the loan lifecycle and mirrors it into the credit
// record registry through the scoring service.
type Service struct {
	repo     Repository
	credits  *credit.Service
	notifier notification.Notifier
}

// NewService builds a loan service.
func NewService(repo Repository, credits *credit.Service, notifier notification.Notifier) *Service {
	return &Service{repo: repo, credits: credits, notifier: notifier}
}

// CreateInput captures data required to open a loan.
type CreateInput struct {
	Borrower     string
	Amount       int64
	InterestRate float64
	TermMonths   int
}

// Create opens a loan in the pending state.
func (s *Service) Create(ctx context.Context, input CreateInput) (Loan, error) {
	if strings.TrimSpace(input.Borrower) == "" {
		return Loan{}, errors.New("borrower wallet address is required")
	}
	if input.Amount <= 0 {
		return Loan{}, errors.New("amount must be positive")
	}
	if input.InterestRate < 0 {
		return Loan{}, errors.New("interest rate must not be negative")
	}
	if input.TermMonths <= 0 {
		return Loan{}, errors.New("term must be positive")
	}

	now := time.Now().UTC()
	loan := Loan{
		ID:           uuid.NewString(),
		Borrower:     input.Borrower,
		Amount:       input.Amount,
		InterestRate: input.InterestRate,
		TermMonths:   input.TermMonths,
		CreatedAt:    now,
		DueDate:      now.AddDate(0, input.TermMonths, 0),
	}

	if err := s.repo.Create(ctx, loan); err != nil {
		return Loan{}, err
	}
	return loan, nil
}

// Approve moves a pending loan to approved and logs the debt in the
// record registry.
func (s *Service) Approve(ctx context.Context, id string) (Loan, error) {
	loan, err := s.repo.Get(ctx, id)
	if err != nil {
		return Loan{}, err
	}
	if loan.Approved {
		return Loan{}, ErrAlreadyApproved
	}

	record, err := s.credits.AddRecord(ctx, chain.CreditRecord{
		Address:     loan.Borrower,
		Amount:      loan.Amount,
		Provider:    providerName,
		RecordType:  chain.RecordTypeLoan,
		ScoreImpact: issueImpact,
	})
	if err != nil {
		return Loan{}, fmt.Errorf("log loan record: %w", err)
	}

	loan.Approved = true
	loan.RecordID = record.ID
	if err := s.repo.Update(ctx, loan); err != nil {
		return Loan{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindLoanApproved,
			Destination: loan.Borrower,
			Body:        fmt.Sprintf("Loan %s for %d approved", loan.ID, loan.Amount),
		})
	}
	return loan, nil
}

// Repay settles an approved loan: the registry record's repaid flag is
// set, a repayment record is appended and the borrower's score refreshed.
func (s *Service) Repay(ctx context.Context, id string) (Loan, error) {
	loan, err := s.repo.Get(ctx, id)
	if err != nil {
		return Loan{}, err
	}
	if loan.Repaid {
		return Loan{}, ErrAlreadyRepaid
	}
	if !loan.Approved {
		return Loan{}, ErrNotApproved
	}

	if loan.RecordID != "" {
		if _, err := s.credits.MarkRepaid(ctx, loan.RecordID); err != nil && !errors.Is(err, chain.ErrAlreadyRepaid) {
			return Loan{}, fmt.Errorf("mark loan record repaid: %w", err)
		}
	}

	if _, err := s.credits.AddRecord(ctx, chain.CreditRecord{
		Address:     loan.Borrower,
		Amount:      loan.Amount,
		Repaid:      true,
		RepaidAt:    time.Now().UTC(),
		Provider:    providerName,
		RecordType:  chain.RecordTypeRepayment,
		ScoreImpact: repayImpact,
	}); err != nil {
		return Loan{}, fmt.Errorf("log repayment record: %w", err)
	}

	loan.Repaid = true
	if err := s.repo.Update(ctx, loan); err != nil {
		return Loan{}, err
	}

	if _, err := s.credits.Recalculate(ctx, loan.Borrower); err != nil {
		return Loan{}, fmt.Errorf("refresh score: %w", err)
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindLoanRepaid,
			Destination: loan.Borrower,
			Body:        fmt.Sprintf("Loan %s repaid", loan.ID),
		})
	}
	return loan, nil
}

// Get returns a loan by identifier.
func (s *Service) Get(ctx context.Context, id string) (Loan, error) {
	return s.repo.Get(ctx, id)
}

// ListByBorrower returns the borrower's loans, newest first.
func (s *Service) ListByBorrower(ctx context.Context, borrower string) ([]Loan, error) {
	return s.repo.ListByBorrower(ctx, borrower)
}
