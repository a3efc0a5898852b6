package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chaincred/chaincred/internal/loans"
	"github.com/chaincred/chaincred/internal/middleware"
	"github.com/chaincred/chaincred/internal/user"
)

// RegisterLoanRoutes wires loan lifecycle endpoints. Approval is a
// lender/admin operation.
func RegisterLoanRoutes(r fiber.Router, h *loans.Handler) {
	group := r.Group("/loans")
	group.Post("", h.Create)
	group.Get("", h.List)
	group.Get("/:id", h.Get)
	group.Post("/:id/approve", middleware.RequireRole(user.RoleLender, user.RoleAdmin), h.Approve)
	group.Post("/:id/repay", h.Repay)
}
