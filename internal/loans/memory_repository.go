package loans

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu    sync.RWMutex
	loans map[string]Loan
}

// NewMemoryRepository builds an in-memory loan store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{loans: make(map[string]Loan)}
}

func (r *memoryRepository) Create(_ context.Context, loan Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loans[loan.ID] = loan
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loan, ok := r.loans[id]
	if !ok {
		return Loan{}, ErrLoanNotFound
	}
	return loan, nil
}

func (r *memoryRepository) ListByBorrower(_ context.Context, borrower string) ([]Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Loan
	for _, loan := range r.loans {
		if loan.Borrower == borrower {
			out = append(out, loan)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) Update(_ context.Context, loan Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loans[loan.ID]; !ok {
		return ErrLoanNotFound
	}
	r.loans[loan.ID] = loan
	return nil
}

func (r *memoryRepository) ListOverdue(_ context.Context, asOf time.Time) ([]Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Loan
	for _, loan := range r.loans {
		if loan.Approved && !loan.Repaid && !loan.Penalized && loan.DueDate.Before(asOf) {
			out = append(out, loan)
		}
	}
	return out, nil
}
