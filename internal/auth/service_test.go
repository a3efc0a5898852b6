package auth

import (
	"context"
	"testing"
	"time"

	"github.com/chaincred/chaincred/internal/config"
	"github.com/chaincred/chaincred/internal/user"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:       "access-secret",
		RefreshSecret:   "refresh-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}
}

func registerUser(t *testing.T, repo user.Repository) user.User {
	t.Helper()
	u, err := user.NewService(repo).Register(context.Background(), user.Credentials{Username: "alice", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return u
}

func TestLoginAndVerify(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := NewService(testConfig(), repo)
	u := registerUser(t, repo)

	pair, err := svc.Login(u)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}

	claims, err := svc.Verify(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != u.ID || claims.Role != u.Role {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := NewService(testConfig(), repo)
	u := registerUser(t, repo)

	pair, err := svc.Login(u)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	other := testConfig()
	other.JWTSecret = "different-secret"
	if _, err := NewService(other, repo).Verify(context.Background(), pair.AccessToken); err == nil {
		t.Fatalf("expected verification failure with wrong secret")
	}
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := NewService(testConfig(), repo)
	u := registerUser(t, repo)

	pair, err := svc.Login(u)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	access, expiresIn, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if access == "" || expiresIn <= 0 {
		t.Fatalf("unexpected refresh result: %q %d", access, expiresIn)
	}
}

func TestLogoutInvalidatesTokens(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := NewService(testConfig(), repo)
	u := registerUser(t, repo)
	ctx := context.Background()

	pair, err := svc.Login(u)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(ctx, u.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := svc.Verify(ctx, pair.AccessToken); err == nil {
		t.Fatalf("expected access token to be invalidated after logout")
	}
	if _, _, err := svc.Refresh(ctx, pair.RefreshToken); err == nil {
		t.Fatalf("expected refresh token to be invalidated after logout")
	}
}
