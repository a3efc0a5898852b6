package user

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 210_000
	saltLength       = 16
	keyLength        = 32
)

// ErrInvalidCredentials is returned for both unknown users and wrong
// passwords so callers cannot distinguish the two.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service manages account lifecycle.
type Service struct {
	repo Repository
}

// NewService creates a new user service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a new account with a PBKDF2-hashed password. The role
// defaults to "user"; accounts may also self-register as "lender", while
// the admin role can only be granted out of band.
func (s *Service) Register(ctx context.Context, creds Credentials) (User, error) {
	username := strings.TrimSpace(creds.Username)
	if username == "" {
		return User{}, errors.New("username is required")
	}
	if len(creds.Password) < 8 {
		return User{}, errors.New("password must be at least 8 characters")
	}

	role := creds.Role
	switch role {
	case "":
		role = RoleUser
	case RoleUser, RoleLender:
	default:
		return User{}, fmt.Errorf("role %q cannot be self-assigned", role)
	}

	hash, err := hashPassword(creds.Password)
	if err != nil {
		return User{}, err
	}

	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Authenticate verifies the password against the stored PBKDF2 hash.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	u, err := s.repo.FindByUsername(ctx, creds.Username)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !verifyPassword(u.PasswordHash, creds.Password) {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// LinkWallet binds a wallet address to the account. Re-linking overwrites
// the previous address; an address held by another account is rejected.
func (s *Service) LinkWallet(ctx context.Context, userID, address string) (User, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return User{}, errors.New("wallet address is required")
	}
	if other, err := s.repo.FindByWallet(ctx, address); err == nil && other.ID != userID {
		return User{}, ErrWalletTaken
	}
	if err := s.repo.UpdateWallet(ctx, userID, address); err != nil {
		return User{}, err
	}
	return s.repo.FindByID(ctx, userID)
}

// Get returns the account by identifier.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// hashPassword derives a PBKDF2-SHA256 key and prepends the random salt.
func hashPassword(password string) ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keyLength, sha256.New)
	return append(salt, key...), nil
}

func verifyPassword(stored []byte, password string) bool {
	if len(stored) != saltLength+keyLength {
		return false
	}
	salt, key := stored[:saltLength], stored[saltLength:]
	derived := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keyLength, sha256.New)
	return subtle.ConstantTimeCompare(key, derived) == 1
}
