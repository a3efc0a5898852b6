package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/chaincred/chaincred/internal/config"
	"github.com/chaincred/chaincred/internal/logging"
)

func testServer(t *testing.T) (*fiber.App, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := config.Config{
		AppName:         "chaincred-test",
		AppEnv:          "development",
		Port:            "0",
		JWTSecret:       "access-secret",
		RefreshSecret:   "refresh-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		ScoreCacheTTL:   time.Minute,
		IdempotencyTTL:  time.Minute,
	}

	srv, err := New(cfg, nil, cache, nil, nil, logging.Discard())
	if err != nil {
		t.Fatalf("build server: %v", err)
	}

	cleanup := func() {
		cache.Close()
		mr.Close()
	}
	return srv.App(), cleanup
}

func doJSON(t *testing.T, app *fiber.App, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode body %q: %v", raw, err)
		}
	}
	return resp.StatusCode, out
}

func register(t *testing.T, app *fiber.App, username, role string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":"correct-horse","role":%q}`, username, role)
	status, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/auth/register", "", body)
	if status != fiber.StatusCreated {
		t.Fatalf("register %s: status %d", username, status)
	}
	status, out := doJSON(t, app, fiber.MethodPost, "/api/v1/auth/login", "",
		fmt.Sprintf(`{"username":%q,"password":"correct-horse"}`, username))
	if status != fiber.StatusOK {
		t.Fatalf("login %s: status %d", username, status)
	}
	token, _ := out["access_token"].(string)
	if token == "" {
		t.Fatalf("login %s: missing access token in %v", username, out)
	}
	return token
}

func TestRegisterLoginAndProfile(t *testing.T) {
	app, cleanup := testServer(t)
	defer cleanup()

	token := register(t, app, "alice", "")

	status, out := doJSON(t, app, fiber.MethodGet, "/api/v1/me", token, "")
	if status != fiber.StatusOK {
		t.Fatalf("me: status %d", status)
	}
	if out["username"] != "alice" {
		t.Fatalf("unexpected profile: %v", out)
	}
}

func TestLoginWrongPasswordReturns401(t *testing.T) {
	app, cleanup := testServer(t)
	defer cleanup()

	register(t, app, "bob", "")

	status, out := doJSON(t, app, fiber.MethodPost, "/api/v1/auth/login", "",
		`{"username":"bob","password":"wrong-password"}`)
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	if success, ok := out["success"].(bool); !ok || success {
		t.Fatalf("expected {success:false} error shape, got %v", out)
	}
	if msg, _ := out["message"].(string); msg == "" {
		t.Fatalf("expected error message, got %v", out)
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	app, cleanup := testServer(t)
	defer cleanup()

	status, _ := doJSON(t, app, fiber.MethodGet, "/api/v1/me", "", "")
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
}

func TestLoanFlowOverHTTP(t *testing.T) {
	app, cleanup := testServer(t)
	defer cleanup()

	borrower := register(t, app, "carol", "")
	lender := register(t, app, "lenny", "lender")

	status, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/me/wallet", borrower, `{"wallet_address":"0xcarol"}`)
	if status != fiber.StatusOK {
		t.Fatalf("link wallet: status %d", status)
	}

	status, loan := doJSON(t, app, fiber.MethodPost, "/api/v1/loans", borrower,
		`{"amount":10000,"interest_rate":5,"term_months":36}`)
	if status != fiber.StatusCreated {
		t.Fatalf("create loan: status %d %v", status, loan)
	}
	loanID, _ := loan["id"].(string)
	if loan["status"] != "pending" {
		t.Fatalf("expected pending loan, got %v", loan)
	}

	// Borrowers cannot approve their own loans.
	status, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/loans/"+loanID+"/approve", borrower, "")
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403 for borrower approval, got %d", status)
	}

	status, loan = doJSON(t, app, fiber.MethodPost, "/api/v1/loans/"+loanID+"/approve", lender, "")
	if status != fiber.StatusOK || loan["status"] != "approved" {
		t.Fatalf("approve: status %d %v", status, loan)
	}

	status, loan = doJSON(t, app, fiber.MethodPost, "/api/v1/loans/"+loanID+"/repay", borrower, "")
	if status != fiber.StatusOK || loan["status"] != "repaid" {
		t.Fatalf("repay: status %d %v", status, loan)
	}

	status, score := doJSON(t, app, fiber.MethodGet, "/api/v1/credit/score/0xcarol", borrower, "")
	if status != fiber.StatusOK {
		t.Fatalf("score: status %d", status)
	}
	if v, ok := score["score"].(float64); !ok || v < 300 || v > 850 {
		t.Fatalf("expected score in range, got %v", score)
	}
}

func TestLoanQuoteIsPublic(t *testing.T) {
	app, cleanup := testServer(t)
	defer cleanup()

	status, out := doJSON(t, app, fiber.MethodGet, "/api/v1/loans/quote?amount=10000&rate=5&term=36", "", "")
	if status != fiber.StatusOK {
		t.Fatalf("quote: status %d", status)
	}
	if out["monthly_payment"] != 299.71 {
		t.Fatalf("expected 299.71, got %v", out["monthly_payment"])
	}
}
