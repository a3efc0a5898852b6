package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chaincred/chaincred/internal/user"
)

// RegisterUserRoutes wires profile and wallet-link endpoints.
func RegisterUserRoutes(r fiber.Router, h *user.Handler) {
	r.Get("/me", h.Me)
	r.Post("/me/wallet", h.LinkWallet)
}
