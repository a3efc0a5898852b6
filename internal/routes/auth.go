package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chaincred/chaincred/internal/auth"
)

// RegisterAuthRoutes wires the public authentication endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/register", h.Register)
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/refresh", h.Refresh)
}

// RegisterLogoutRoute wires logout under the authenticated group; it needs
// the token subject to bump the version.
func RegisterLogoutRoute(r fiber.Router, h *auth.Handler) {
	r.Post("/auth/logout", h.Logout)
}
