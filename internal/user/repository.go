package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested user does not exist.
var ErrNotFound = errors.New("user not found")

// ErrUsernameTaken indicates a registration collision.
var ErrUsernameTaken = errors.New("username already taken")

// ErrWalletTaken indicates the wallet address is linked to another account.
var ErrWalletTaken = errors.New("wallet address already linked")

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, u User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByWallet(ctx context.Context, address string) (User, error)
	UpdateWallet(ctx context.Context, id, address string) error
	UpdateTokenVersion(ctx context.Context, id string, version int) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, username, password_hash, role, COALESCE(wallet_address, ''), token_version, created_at`

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, u User) error {
	userID, err := uuid.Parse(u.ID)
	if err != nil {
		return err
	}
	var wallet any
	if u.WalletAddress != "" {
		wallet = u.WalletAddress
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (id, username, password_hash, role, wallet_address, token_version, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		userID, u.Username, u.PasswordHash, u.Role, wallet, u.TokenVersion, u.CreatedAt.UTC())
	return err
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	return r.scanOne(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
}

// FindByUsername fetches a user by username.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// FindByWallet fetches the user linked to the given wallet address.
func (r *PostgresRepository) FindByWallet(ctx context.Context, address string) (User, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE wallet_address = $1`, address))
}

// UpdateWallet sets the wallet address linked to the account.
func (r *PostgresRepository) UpdateWallet(ctx context.Context, id, address string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET wallet_address = $1 WHERE id = $2`, address, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTokenVersion stores the new token version, invalidating older tokens.
func (r *PostgresRepository) UpdateTokenVersion(ctx context.Context, id string, version int) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET token_version = $1 WHERE id = $2`, version, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		u         User
	)
	if err := row.Scan(&id, &u.Username, &u.PasswordHash, &u.Role, &u.WalletAddress, &u.TokenVersion, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	u.ID = id.String()
	u.CreatedAt = createdAt.UTC()
	return u, nil
}
