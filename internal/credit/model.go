package credit

import "time"

// Score bounds mandated by the scoring model.
const (
	MinScore = 300
	MaxScore = 850
)

// Score is the current credit score for a wallet address. It is
// overwritten on each recalculation; history lives in the record registry.
type Score struct {
	Address   string
	Value     int
	UpdatedAt time.Time
}

// Features summarises a wallet's record history for the scoring model.
type Features struct {
	Address      string
	TotalRecords int
	RepaidCount  int
	ImpactSum    int
	TotalAmount  int64
}

// RepaidRatio returns the share of records whose repaid flag is set.
func (f Features) RepaidRatio() float64 {
	if f.TotalRecords == 0 {
		return 0
	}
	return float64(f.RepaidCount) / float64(f.TotalRecords)
}

// Clamp forces a raw model output into the valid score range.
func Clamp(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
