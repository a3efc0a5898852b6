package credit

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/chaincred/chaincred/internal/chain"
)

// Handler exposes credit score and record endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a credit HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type scoreResponse struct {
	Address   string    `json:"address"`
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetScore serves the score for a wallet address.
func (h *Handler) GetScore(c *fiber.Ctx) error {
	score, err := h.service.GetScore(c.UserContext(), c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusOK).JSON(scoreResponse{Address: score.Address, Score: score.Value, UpdatedAt: score.UpdatedAt})
}

// Recalculate forces a fresh score computation for a wallet address.
func (h *Handler) Recalculate(c *fiber.Ctx) error {
	score, err := h.service.Recalculate(c.UserContext(), c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}
	return c.Status(http.StatusOK).JSON(scoreResponse{Address: score.Address, Score: score.Value, UpdatedAt: score.UpdatedAt})
}

type recordResponse struct {
	ID          string     `json:"id"`
	Address     string     `json:"address"`
	Timestamp   time.Time  `json:"timestamp"`
	Amount      int64      `json:"amount"`
	Repaid      bool       `json:"repaid"`
	RepaidAt    *time.Time `json:"repaid_at,omitempty"`
	Provider    string     `json:"provider"`
	RecordType  string     `json:"record_type"`
	ScoreImpact int        `json:"score_impact"`
}

func toRecordResponse(rec chain.CreditRecord) recordResponse {
	out := recordResponse{
		ID:          rec.ID,
		Address:     rec.Address,
		Timestamp:   rec.Timestamp,
		Amount:      rec.Amount,
		Repaid:      rec.Repaid,
		Provider:    rec.Provider,
		RecordType:  rec.RecordType,
		ScoreImpact: rec.ScoreImpact,
	}
	if !rec.RepaidAt.IsZero() {
		at := rec.RepaidAt
		out.RepaidAt = &at
	}
	return out
}

// ListRecords serves the record history for a wallet address.
func (h *Handler) ListRecords(c *fiber.Ctx) error {
	records, err := h.service.ListRecords(c.UserContext(), c.Params("address"))
	if err != nil {
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}
	out := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordResponse(rec))
	}
	return c.Status(http.StatusOK).JSON(out)
}

type addRecordRequest struct {
	Address     string `json:"address"`
	Amount      int64  `json:"amount"`
	Provider    string `json:"provider"`
	RecordType  string `json:"record_type"`
	ScoreImpact int    `json:"score_impact"`
}

// AddRecord appends a credit record for a wallet address.
func (h *Handler) AddRecord(c *fiber.Ctx) error {
	var req addRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	record, err := h.service.AddRecord(c.UserContext(), chain.CreditRecord{
		Address:     req.Address,
		Amount:      req.Amount,
		Provider:    req.Provider,
		RecordType:  req.RecordType,
		ScoreImpact: req.ScoreImpact,
	})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toRecordResponse(record))
}

// MarkRepaid flips a record's repaid flag.
func (h *Handler) MarkRepaid(c *fiber.Ctx) error {
	record, err := h.service.MarkRepaid(c.UserContext(), c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, chain.ErrRecordNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, chain.ErrAlreadyRepaid):
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return fiber.NewError(http.StatusBadGateway, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toRecordResponse(record))
}
