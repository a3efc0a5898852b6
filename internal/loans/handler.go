package loans

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/chaincred/chaincred/internal/user"
)

// Handler exposes loan endpoints.
type Handler struct {
	service *Service
	users   *user.Service
}

// NewHandler constructs a loan HTTP handler.
func NewHandler(service *Service, users *user.Service) *Handler {
	return &Handler{service: service, users: users}
}

type loanResponse struct {
	ID           string    `json:"id"`
	Borrower     string    `json:"borrower"`
	Amount       int64     `json:"amount"`
	InterestRate float64   `json:"interest_rate"`
	TermMonths   int       `json:"term_months"`
	CreatedAt    time.Time `json:"created_at"`
	DueDate      time.Time `json:"due_date"`
	Status       string    `json:"status"`
}

func toLoanResponse(l Loan) loanResponse {
	return loanResponse{
		ID:           l.ID,
		Borrower:     l.Borrower,
		Amount:       l.Amount,
		InterestRate: l.InterestRate,
		TermMonths:   l.TermMonths,
		CreatedAt:    l.CreatedAt,
		DueDate:      l.DueDate,
		Status:       l.Status(),
	}
}

type createRequest struct {
	Amount       int64   `json:"amount"`
	InterestRate float64 `json:"interest_rate"`
	TermMonths   int     `json:"term_months"`
}

// Create opens a loan for the authenticated user's linked wallet.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	borrower, err := h.borrowerWallet(c)
	if err != nil {
		return err
	}

	loan, err := h.service.Create(c.UserContext(), CreateInput{
		Borrower:     borrower,
		Amount:       req.Amount,
		InterestRate: req.InterestRate,
		TermMonths:   req.TermMonths,
	})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toLoanResponse(loan))
}

// Get serves a single loan. Borrowers see only their own loans; lenders
// and admins see all.
func (h *Handler) Get(c *fiber.Ctx) error {
	loan, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	if !h.mayView(c, loan) {
		return fiber.NewError(http.StatusForbidden, "not your loan")
	}
	return c.Status(http.StatusOK).JSON(toLoanResponse(loan))
}

// List serves the authenticated user's loans.
func (h *Handler) List(c *fiber.Ctx) error {
	borrower, err := h.borrowerWallet(c)
	if err != nil {
		return err
	}
	ls, err := h.service.ListByBorrower(c.UserContext(), borrower)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]loanResponse, 0, len(ls))
	for _, l := range ls {
		out = append(out, toLoanResponse(l))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Approve moves a pending loan to approved.
func (h *Handler) Approve(c *fiber.Ctx) error {
	loan, err := h.service.Approve(c.UserContext(), c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrLoanNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrAlreadyApproved):
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toLoanResponse(loan))
}

// Repay settles an approved loan.
func (h *Handler) Repay(c *fiber.Ctx) error {
	loan, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	if !h.mayView(c, loan) {
		return fiber.NewError(http.StatusForbidden, "not your loan")
	}

	loan, err = h.service.Repay(c.UserContext(), loan.ID)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyRepaid), errors.Is(err, ErrNotApproved):
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toLoanResponse(loan))
}

type quoteResponse struct {
	Amount         float64 `json:"amount"`
	InterestRate   float64 `json:"interest_rate"`
	TermMonths     int     `json:"term_months"`
	MonthlyPayment float64 `json:"monthly_payment"`
	TotalInterest  float64 `json:"total_interest"`
}

// Quote computes the amortized monthly payment for the given terms.
func (h *Handler) Quote(c *fiber.Ctx) error {
	amount := c.QueryFloat("amount")
	rate := c.QueryFloat("rate")
	term := c.QueryInt("term")

	payment, err := MonthlyPayment(amount, rate, term)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusOK).JSON(quoteResponse{
		Amount:         amount,
		InterestRate:   rate,
		TermMonths:     term,
		MonthlyPayment: payment,
		TotalInterest:  TotalInterest(amount, payment, term),
	})
}

func (h *Handler) borrowerWallet(c *fiber.Ctx) (string, error) {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return "", fiber.NewError(http.StatusUnauthorized, "missing authentication")
	}
	u, err := h.users.Get(c.UserContext(), uid)
	if err != nil {
		return "", fiber.NewError(http.StatusUnauthorized, "user not found")
	}
	if u.WalletAddress == "" {
		return "", fiber.NewError(http.StatusBadRequest, "no wallet address linked")
	}
	return u.WalletAddress, nil
}

func (h *Handler) mayView(c *fiber.Ctx, loan Loan) bool {
	role, _ := c.Locals("role").(string)
	if role == user.RoleLender || role == user.RoleAdmin {
		return true
	}
	uid, _ := c.Locals("user_id").(string)
	u, err := h.users.Get(c.UserContext(), uid)
	return err == nil && u.WalletAddress == loan.Borrower
}
