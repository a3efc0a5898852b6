package chain

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryRegistry struct {
	mu      sync.RWMutex
	records []CreditRecord
	byID    map[string]int
}

// NewMemoryRegistry builds an in-memory credit record registry used for
// development and unit tests. Records are kept in append order, mirroring
// the on-chain array.
func NewMemoryRegistry() Registry {
	return &memoryRegistry{byID: make(map[string]int)}
}

func (r *memoryRegistry) AppendRecord(_ context.Context, record CreditRecord) (CreditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	r.byID[record.ID] = len(r.records)
	r.records = append(r.records, record)
	return record, nil
}

func (r *memoryRegistry) MarkRepaid(_ context.Context, recordID string, at time.Time) (CreditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byID[recordID]
	if !ok {
		return CreditRecord{}, ErrRecordNotFound
	}
	if r.records[idx].Repaid {
		return CreditRecord{}, ErrAlreadyRepaid
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	r.records[idx].Repaid = true
	r.records[idx].RepaidAt = at.UTC()
	return r.records[idx], nil
}

func (r *memoryRegistry) RecordsByAddress(_ context.Context, address string) ([]CreditRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []CreditRecord
	for _, rec := range r.records {
		if rec.Address == address {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memoryRegistry) Ping(_ context.Context) error {
	return nil
}
