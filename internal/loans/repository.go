package loans

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists loans.
type Repository interface {
	Create(ctx context.Context, loan Loan) error
	Get(ctx context.Context, id string) (Loan, error)
	ListByBorrower(ctx context.Context, borrower string) ([]Loan, error)
	Update(ctx context.Context, loan Loan) error
	ListOverdue(ctx context.Context, asOf time.Time) ([]Loan, error)
}

// PostgresRepository stores loans in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed loan repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const loanColumns = `id, borrower, amount, interest_rate, term_months, created_at, due_date, approved, repaid, penalized, record_id`

// Create inserts a loan record.
func (r *PostgresRepository) Create(ctx context.Context, loan Loan) error {
	loanID, err := uuid.Parse(loan.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO loans (`+loanColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		loanID, loan.Borrower, loan.Amount, loan.InterestRate, loan.TermMonths,
		loan.CreatedAt.UTC(), loan.DueDate.UTC(), loan.Approved, loan.Repaid, loan.Penalized, loan.RecordID)
	return err
}

// Get fetches a loan by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Loan, error) {
	loanID, err := uuid.Parse(id)
	if err != nil {
		return Loan{}, ErrLoanNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, loanID)
	return scanLoan(row)
}

// ListByBorrower fetches all loans for a borrower wallet address.
func (r *PostgresRepository) ListByBorrower(ctx context.Context, borrower string) ([]Loan, error) {
	rows, err := r.db.Query(ctx, `SELECT `+loanColumns+` FROM loans WHERE borrower = $1 ORDER BY created_at DESC`, borrower)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLoans(rows)
}

// Update overwrites the loan's mutable flags.
func (r *PostgresRepository) Update(ctx context.Context, loan Loan) error {
	loanID, err := uuid.Parse(loan.ID)
	if err != nil {
		return ErrLoanNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE loans SET approved = $1, repaid = $2, penalized = $3, record_id = $4 WHERE id = $5`,
		loan.Approved, loan.Repaid, loan.Penalized, loan.RecordID, loanID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrLoanNotFound
	}
	return nil
}

// ListOverdue returns approved, unrepaid, unpenalized loans past their due date.
func (r *PostgresRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]Loan, error) {
	rows, err := r.db.Query(ctx, `SELECT `+loanColumns+` FROM loans
        WHERE approved AND NOT repaid AND NOT penalized AND due_date < $1`, asOf.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLoans(rows)
}

func scanLoan(row pgx.Row) (Loan, error) {
	var (
		id               uuid.UUID
		createdAt, dueAt time.Time
		loan             Loan
	)
	if err := row.Scan(&id, &loan.Borrower, &loan.Amount, &loan.InterestRate, &loan.TermMonths,
		&createdAt, &dueAt, &loan.Approved, &loan.Repaid, &loan.Penalized, &loan.RecordID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Loan{}, ErrLoanNotFound
		}
		return Loan{}, err
	}
	loan.ID = id.String()
	loan.CreatedAt = createdAt.UTC()
	loan.DueDate = dueAt.UTC()
	return loan, nil
}

func collectLoans(rows pgx.Rows) ([]Loan, error) {
	var out []Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, loan)
	}
	return out, rows.Err()
}
