package user

import "time"

// Roles recognised by the authorization layer.
const (
	RoleUser   = "user"
	RoleLender = "lender"
	RoleAdmin  = "admin"
)

// User represents a registered account, optionally linked to a wallet
// address used as the key for credit lookups.
type User struct {
	ID            string
	Username      string
	PasswordHash  []byte
	Role          string
	WalletAddress string
	TokenVersion  int
	CreatedAt     time.Time
}

// Credentials carries a login or registration request.
type Credentials struct {
	Username string
	Password string
	Role     string
}
