package user

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes account endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a user HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type profileResponse struct {
	UserID        string    `json:"user_id"`
	Username      string    `json:"username"`
	Role          string    `json:"role"`
	WalletAddress string    `json:"wallet_address,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toProfile(u User) profileResponse {
	return profileResponse{
		UserID:        u.ID,
		Username:      u.Username,
		Role:          u.Role,
		WalletAddress: u.WalletAddress,
		CreatedAt:     u.CreatedAt,
	}
}

// Me returns the authenticated account's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "missing authentication")
	}
	u, err := h.service.Get(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "user not found")
	}
	return c.Status(http.StatusOK).JSON(toProfile(u))
}

type linkWalletRequest struct {
	WalletAddress string `json:"wallet_address"`
}

// LinkWallet binds a wallet address to the authenticated account.
func (h *Handler) LinkWallet(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "missing authentication")
	}
	var req linkWalletRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	u, err := h.service.LinkWallet(c.UserContext(), uid, req.WalletAddress)
	if err != nil {
		if errors.Is(err, ErrWalletTaken) {
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toProfile(u))
}
