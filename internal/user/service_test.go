package user

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)

	ctx := context.Background()
	u, err := svc.Register(ctx, Credentials{Username: "alice", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != RoleUser {
		t.Fatalf("expected default role %q, got %q", RoleUser, u.Role)
	}

	authed, err := svc.Authenticate(ctx, Credentials{Username: "alice", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != u.ID {
		t.Fatalf("expected user %s, got %s", u.ID, authed.ID)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Username: "bob", Password: "password1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Authenticate(ctx, Credentials{Username: "bob", Password: "password2"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, Credentials{Username: "nobody", Password: "password1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Username: "carol", Password: "password1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, Credentials{Username: "carol", Password: "password2"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegisterRoles(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Username: "eve", Password: "password1", Role: RoleAdmin}); err == nil {
		t.Fatalf("expected self-assigned admin role to be rejected")
	}

	lender, err := svc.Register(ctx, Credentials{Username: "lenny", Password: "password1", Role: RoleLender})
	if err != nil {
		t.Fatalf("register lender: %v", err)
	}
	if lender.Role != RoleLender {
		t.Fatalf("expected lender role, got %q", lender.Role)
	}
}

func TestLinkWallet(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	a, err := svc.Register(ctx, Credentials{Username: "dave", Password: "password1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	b, err := svc.Register(ctx, Credentials{Username: "erin", Password: "password1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	linked, err := svc.LinkWallet(ctx, a.ID, "0xabc123")
	if err != nil {
		t.Fatalf("link wallet: %v", err)
	}
	if linked.WalletAddress != "0xabc123" {
		t.Fatalf("expected wallet linked, got %q", linked.WalletAddress)
	}

	if _, err := svc.LinkWallet(ctx, b.ID, "0xabc123"); !errors.Is(err, ErrWalletTaken) {
		t.Fatalf("expected ErrWalletTaken, got %v", err)
	}

	// Re-linking the same account overwrites.
	relinked, err := svc.LinkWallet(ctx, a.ID, "0xdef456")
	if err != nil {
		t.Fatalf("relink wallet: %v", err)
	}
	if relinked.WalletAddress != "0xdef456" {
		t.Fatalf("expected wallet overwritten, got %q", relinked.WalletAddress)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := hashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !verifyPassword(hash, "hunter22") {
		t.Fatalf("expected password to verify")
	}
	if verifyPassword(hash, "hunter23") {
		t.Fatalf("expected wrong password to fail")
	}
}
