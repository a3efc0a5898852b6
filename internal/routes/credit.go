package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chaincred/chaincred/internal/credit"
	"github.com/chaincred/chaincred/internal/middleware"
	"github.com/chaincred/chaincred/internal/user"
)

// RegisterCreditRoutes wires score and record endpoints. Writing records
// and flipping repaid flags is restricted to providers (lender/admin).
func RegisterCreditRoutes(r fiber.Router, h *credit.Handler) {
	group := r.Group("/credit")
	group.Get("/score/:address", h.GetScore)
	group.Post("/recalculate/:address", h.Recalculate)
	group.Get("/records/:address", h.ListRecords)

	provider := middleware.RequireRole(user.RoleLender, user.RoleAdmin)
	group.Post("/records", provider, h.AddRecord)
	group.Post("/records/:id/repaid", provider, h.MarkRepaid)
}
