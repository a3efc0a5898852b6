package credit

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrScoreNotFound indicates no stored score exists for the address.
var ErrScoreNotFound = errors.New("score not found")

// Repository persists the latest score per wallet address.
type Repository interface {
	Get(ctx context.Context, address string) (Score, error)
	Upsert(ctx context.Context, score Score) error
}

// PostgresRepository stores scores in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed score repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get fetches the stored score for an address.
func (r *PostgresRepository) Get(ctx context.Context, address string) (Score, error) {
	row := r.db.QueryRow(ctx, `SELECT address, score, updated_at FROM credit_scores WHERE address = $1`, address)
	var (
		s         Score
		updatedAt time.Time
	)
	if err := row.Scan(&s.Address, &s.Value, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Score{}, ErrScoreNotFound
		}
		return Score{}, err
	}
	s.UpdatedAt = updatedAt.UTC()
	return s, nil
}

// Upsert overwrites the stored score for an address.
func (r *PostgresRepository) Upsert(ctx context.Context, score Score) error {
	_, err := r.db.Exec(ctx, `INSERT INTO credit_scores (address, score, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (address) DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at`,
		score.Address, score.Value, score.UpdatedAt.UTC())
	return err
}
