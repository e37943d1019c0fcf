package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"lunar-oracle/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const recentPostsWindow = "1d"

type EvidenceProvider interface {
	TopicOrDefault(ctx context.Context, symbol string) domain.SocialSnapshot
	TopicPosts(ctx context.Context, symbol, window string) ([]domain.SocialPost, error)
}

type Oracle interface {
	Predict(ctx context.Context, bundle domain.EvidenceBundle) (*domain.Verdict, error)
}

type PredictionStore interface {
	InsertPrediction(ctx context.Context, rec *domain.PredictionRecord) (string, error)
	ListPredictions(ctx context.Context, symbol string, limit int) ([]domain.PredictionRecord, error)
	InsertSnapshot(ctx context.Context, snap domain.SocialSnapshot) error
	RollingAccuracy(ctx context.Context, symbol string) (float64, error)
}

// PredictionService runs the full pipeline for one symbol: gather social
// evidence, look up historical accuracy, ask the oracle, assemble the
// record with its expiry, persist, return.
type PredictionService struct {
	tracer   trace.Tracer
	provider EvidenceProvider
	oracle   Oracle
	store    PredictionStore
}

func NewPredictionService(
	tracer trace.Tracer,
	provider EvidenceProvider,
	oracle Oracle,
	store PredictionStore,
) *PredictionService {
	return &PredictionService{
		tracer:   tracer,
		provider: provider,
		oracle:   oracle,
		store:    store,
	}
}

func (s *PredictionService) Generate(ctx context.Context, symbol string, timeframeHours int) (*domain.PredictionRecord, error) {
	_, span := s.tracer.Start(ctx, "prediction-service.generate")
	defer span.End()

	if s.provider == nil || s.oracle == nil || s.store == nil {
		return nil, fmt.Errorf("prediction service is not fully initialized")
	}

	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	// Zero means unspecified; anything below that is a caller error.
	if timeframeHours < 0 {
		return nil, fmt.Errorf("timeframe must be a positive number of hours")
	}
	if timeframeHours == 0 {
		timeframeHours = domain.DefaultTimeframeHours
	}

	snapshot := s.provider.TopicOrDefault(ctx, symbol)

	posts, err := s.provider.TopicPosts(ctx, symbol, recentPostsWindow)
	if err != nil {
		log.Printf("recent posts unavailable for %s: %v", symbol, err)
		posts = nil
	}

	// Read before insert so the new prediction cannot feed its own history.
	accuracy, err := s.store.RollingAccuracy(ctx, symbol)
	if err != nil {
		log.Printf("rolling accuracy unavailable for %s, using default: %v", symbol, err)
		accuracy = domain.DefaultAccuracy
	}

	verdict, err := s.oracle.Predict(ctx, domain.EvidenceBundle{
		Symbol:             symbol,
		Snapshot:           snapshot,
		HistoricalAccuracy: accuracy,
		TimeframeHours:     timeframeHours,
		RecentPosts:        posts,
	})
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", symbol, err)
	}

	now := time.Now().UTC()
	rec := &domain.PredictionRecord{
		Symbol:          symbol,
		Direction:       verdict.Direction,
		Confidence:      verdict.Confidence,
		TargetChange:    verdict.TargetChange,
		TimeframeHours:  timeframeHours,
		Reasoning:       verdict.Reasoning,
		GalaxyScore:     snapshot.GalaxyScore,
		SocialDominance: snapshot.SocialDominance,
		Sentiment:       snapshot.Sentiment,
		CreatedAt:       now,
		ExpiresAt:       now.Add(time.Duration(timeframeHours) * time.Hour),
		Status:          domain.StatusActive,
	}

	if err := s.store.InsertSnapshot(ctx, snapshot); err != nil {
		log.Printf("snapshot insert failed for %s: %v", symbol, err)
	}

	id, err := s.store.InsertPrediction(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("persist prediction for %s: %w", symbol, err)
	}
	rec.ID = id
	return rec, nil
}

func (s *PredictionService) History(ctx context.Context, symbol string, limit int) ([]domain.PredictionRecord, error) {
	_, span := s.tracer.Start(ctx, "prediction-service.history")
	defer span.End()

	if s.store == nil {
		return nil, fmt.Errorf("prediction service is not fully initialized")
	}
	if symbol != "" {
		symbol = domain.NormalizeSymbol(symbol)
	}
	return s.store.ListPredictions(ctx, symbol, limit)
}
