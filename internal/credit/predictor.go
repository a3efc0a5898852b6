package credit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Predictor produces a raw credit score from wallet features. Outputs are
// clamped by the caller.
type Predictor interface {
	Predict(ctx context.Context, features Features) (int, error)
}

const ratioWeight = 450

// StaticPredictor is the canned linear scoring rule: base score plus the
// repayment ratio weighted into the available range, plus the summed
// per-record score impacts.
type StaticPredictor struct{}

// Predict applies the linear rule. A wallet with no history lands mid-range.
func (StaticPredictor) Predict(_ context.Context, f Features) (int, error) {
	if f.TotalRecords == 0 {
		return (MinScore + MaxScore) / 2, nil
	}
	raw := MinScore + int(math.Round(f.RepaidRatio()*ratioWeight)) + f.ImpactSum
	return raw, nil
}

// HTTPPredictor calls an external model endpoint with the wallet features
// and expects {"score": <number>} back.
type HTTPPredictor struct {
	endpoint string
	client   *http.Client
}

// NewHTTPPredictor builds a predictor against the given model endpoint URL.
func NewHTTPPredictor(endpoint string) *HTTPPredictor {
	return &HTTPPredictor{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type predictRequest struct {
	Address      string  `json:"address"`
	TotalRecords int     `json:"total_records"`
	RepaidCount  int     `json:"repaid_count"`
	RepaidRatio  float64 `json:"repaid_ratio"`
	ImpactSum    int     `json:"impact_sum"`
	TotalAmount  int64   `json:"total_amount"`
}

type predictResponse struct {
	Score float64 `json:"score"`
}

// Predict posts the features to the model endpoint.
func (p *HTTPPredictor) Predict(ctx context.Context, f Features) (int, error) {
	payload, err := json.Marshal(predictRequest{
		Address:      f.Address,
		TotalRecords: f.TotalRecords,
		RepaidCount:  f.RepaidCount,
		RepaidRatio:  f.RepaidRatio(),
		ImpactSum:    f.ImpactSum,
		TotalAmount:  f.TotalAmount,
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("model endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("model endpoint: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("model endpoint: status %d", resp.StatusCode)
	}

	var out predictResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("model endpoint: decode response: %w", err)
	}
	return int(math.Round(out.Score)), nil
}
