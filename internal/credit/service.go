package credit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chaincred/chaincred/internal/chain"
	"github.com/chaincred/chaincred/internal/notification"
)

const scoreCachePrefix = "score:v1:"

// cachedScore carries the computed-at timestamp through the cache so a
// cache hit reports when the score was actually produced.
type cachedScore struct {
	Value     int       `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service computes and serves credit scores backed by the on-chain record
// registry, the score store and an optional Redis cache.
type Service struct {
	registry  chain.Registry
	scores    Repository
	predictor Predictor
	cache     *redis.Client
	cacheTTL  time.Duration
	notifier  notification.Notifier
	computed  func()
}

// NewService builds the scoring service. cache may be nil; computed is an
// optional hook invoked after every recalculation (metrics).
func NewService(registry chain.Registry, scores Repository, predictor Predictor, cache *redis.Client, cacheTTL time.Duration, notifier notification.Notifier, computed func()) *Service {
	if predictor == nil {
		predictor = StaticPredictor{}
	}
	return &Service{
		registry:  registry,
		scores:    scores,
		predictor: predictor,
		cache:     cache,
		cacheTTL:  cacheTTL,
		notifier:  notifier,
		computed:  computed,
	}
}

// GetScore returns the score for an address: cache first, then the store,
// computing from scratch when neither holds a value.
func (s *Service) GetScore(ctx context.Context, address string) (Score, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Score{}, errors.New("wallet address is required")
	}

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, scoreCachePrefix+address).Bytes(); err == nil {
			var cached cachedScore
			if err := json.Unmarshal(raw, &cached); err == nil {
				return Score{Address: address, Value: cached.Value, UpdatedAt: cached.UpdatedAt}, nil
			}
		}
	}

	stored, err := s.scores.Get(ctx, address)
	if err == nil {
		s.setCache(ctx, stored)
		return stored, nil
	}
	if !errors.Is(err, ErrScoreNotFound) {
		return Score{}, err
	}

	return s.Recalculate(ctx, address)
}

// Recalculate recomputes the score from the full record history and
// overwrites the stored value.
func (s *Service) Recalculate(ctx context.Context, address string) (Score, error) {
	records, err := s.registry.RecordsByAddress(ctx, address)
	if err != nil {
		return Score{}, fmt.Errorf("load records: %w", err)
	}

	raw, err := s.predictor.Predict(ctx, featuresFrom(address, records))
	if err != nil {
		return Score{}, fmt.Errorf("predict score: %w", err)
	}

	score := Score{Address: address, Value: Clamp(raw), UpdatedAt: time.Now().UTC()}
	if err := s.scores.Upsert(ctx, score); err != nil {
		return Score{}, err
	}
	s.setCache(ctx, score)

	if s.computed != nil {
		s.computed()
	}
	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindScoreUpdated,
			Destination: address,
			Body:        fmt.Sprintf("Credit score updated to %d", score.Value),
		})
	}
	return score, nil
}

// AddRecord appends a credit record to the registry and drops the cached
// score so the next read reflects it.
func (s *Service) AddRecord(ctx context.Context, record chain.CreditRecord) (chain.CreditRecord, error) {
	if strings.TrimSpace(record.Address) == "" {
		return chain.CreditRecord{}, errors.New("wallet address is required")
	}
	if record.RecordType == "" {
		return chain.CreditRecord{}, errors.New("record type is required")
	}
	if record.Amount < 0 {
		return chain.CreditRecord{}, errors.New("amount must not be negative")
	}

	appended, err := s.registry.AppendRecord(ctx, record)
	if err != nil {
		return chain.CreditRecord{}, err
	}
	s.dropCache(ctx, record.Address)
	return appended, nil
}

// MarkRepaid sets a record's repaid flag and recalculates the score.
func (s *Service) MarkRepaid(ctx context.Context, recordID string) (chain.CreditRecord, error) {
	record, err := s.registry.MarkRepaid(ctx, recordID, time.Now().UTC())
	if err != nil {
		return chain.CreditRecord{}, err
	}
	if _, err := s.Recalculate(ctx, record.Address); err != nil {
		return chain.CreditRecord{}, err
	}
	return record, nil
}

// ListRecords returns the full record history for an address.
func (s *Service) ListRecords(ctx context.Context, address string) ([]chain.CreditRecord, error) {
	return s.registry.RecordsByAddress(ctx, address)
}

func (s *Service) setCache(ctx context.Context, score Score) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(cachedScore{Value: score.Value, UpdatedAt: score.UpdatedAt})
	if err != nil {
		return
	}
	s.cache.Set(ctx, scoreCachePrefix+score.Address, payload, s.cacheTTL)
}

func (s *Service) dropCache(ctx context.Context, address string) {
	if s.cache == nil {
		return
	}
	s.cache.Del(ctx, scoreCachePrefix+address)
}

func featuresFrom(address string, records []chain.CreditRecord) Features {
	f := Features{Address: address, TotalRecords: len(records)}
	for _, rec := range records {
		if rec.Repaid {
			f.RepaidCount++
		}
		f.ImpactSum += rec.ScoreImpact
		f.TotalAmount += rec.Amount
	}
	return f
}
