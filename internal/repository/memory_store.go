package repository

import (
	"context"
	"sync"
	"time"

	"lunar-oracle/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

type storedInteraction struct {
	UserID     string
	Message    string
	Response   string
	Confidence float64
	Timestamp  time.Time
}

// MemoryStore is the process-lifetime fallback used when no durable
// backend is configured. Reads return copies so callers cannot mutate
// shared state.
type MemoryStore struct {
	mu           sync.RWMutex
	predictions  []domain.PredictionRecord
	snapshots    []domain.SocialSnapshot
	interactions []storedInteraction
	tracer       trace.Tracer
}

func NewMemoryStore(tracer trace.Tracer) *MemoryStore {
	return &MemoryStore{tracer: tracer}
}

func (s *MemoryStore) InsertPrediction(ctx context.Context, rec *domain.PredictionRecord) (string, error) {
	_, span := s.tracer.Start(ctx, "memory-store.insert-prediction")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *rec
	stored.ID = uuid.NewString()
	s.predictions = append(s.predictions, stored)
	return stored.ID, nil
}

func (s *MemoryStore) ListPredictions(ctx context.Context, symbol string, limit int) ([]domain.PredictionRecord, error) {
	_, span := s.tracer.Start(ctx, "memory-store.list-predictions")
	defer span.End()

	limit = clampPageSize(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.PredictionRecord, 0, limit)
	for i := len(s.predictions) - 1; i >= 0 && len(records) < limit; i-- {
		rec := s.predictions[i]
		if symbol != "" && rec.Symbol != symbol {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *MemoryStore) InsertSnapshot(ctx context.Context, snap domain.SocialSnapshot) error {
	_, span := s.tracer.Start(ctx, "memory-store.insert-snapshot")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots = append(s.snapshots, snap)
	return nil
}

func (s *MemoryStore) InsertInteraction(ctx context.Context, userID, message, response string, confidence float64) error {
	_, span := s.tracer.Start(ctx, "memory-store.insert-interaction")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.interactions = append(s.interactions, storedInteraction{
		UserID:     userID,
		Message:    message,
		Response:   response,
		Confidence: confidence,
		Timestamp:  time.Now().UTC(),
	})
	return nil
}

func (s *MemoryStore) RollingAccuracy(ctx context.Context, symbol string) (float64, error) {
	_, span := s.tracer.Start(ctx, "memory-store.rolling-accuracy")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum float64
	var n int
	for _, rec := range s.predictions {
		if rec.Symbol != symbol || rec.AccuracyScore == nil {
			continue
		}
		sum += *rec.AccuracyScore
		n++
	}
	if n == 0 {
		return domain.DefaultAccuracy, nil
	}
	return sum / float64(n), nil
}

func (s *MemoryStore) ListExpiredActive(ctx context.Context, limit int) ([]domain.PredictionRecord, error) {
	_, span := s.tracer.Start(ctx, "memory-store.list-expired-active")
	defer span.End()

	if limit <= 0 {
		limit = DefaultPageSize
	}
	now := time.Now().UTC()

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.PredictionRecord, 0)
	for _, rec := range s.predictions {
		if rec.Status != domain.StatusActive || rec.ExpiresAt.After(now) {
			continue
		}
		records = append(records, rec)
		if len(records) >= limit {
			break
		}
	}
	return records, nil
}

func (s *MemoryStore) ResolvePrediction(ctx context.Context, id string, actualChange, accuracyScore float64) error {
	_, span := s.tracer.Start(ctx, "memory-store.resolve-prediction")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.predictions {
		if s.predictions[i].ID != id {
			continue
		}
		actual := actualChange
		score := accuracyScore
		s.predictions[i].ActualChange = &actual
		s.predictions[i].AccuracyScore = &score
		s.predictions[i].Status = domain.StatusResolved
		return nil
	}
	return nil
}
