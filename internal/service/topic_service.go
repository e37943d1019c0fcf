package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"lunar-oracle/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

type TopicProvider interface {
	Topic(ctx context.Context, symbol string) (domain.SocialSnapshot, error)
	Healthy(ctx context.Context) error
}

// TopicService serves raw social snapshots on the display path. Reads go
// through a short-lived Redis cache when one is connected; the prediction
// pipeline bypasses this service entirely so its evidence is never stale.
type TopicService struct {
	tracer   trace.Tracer
	provider TopicProvider
	cache    *redis.Client
	ttl      time.Duration
}

func NewTopicService(tracer trace.Tracer, provider TopicProvider, cache *redis.Client, ttl time.Duration) *TopicService {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &TopicService{
		tracer:   tracer,
		provider: provider,
		cache:    cache,
		ttl:      ttl,
	}
}

func (s *TopicService) Topic(ctx context.Context, symbol string) (domain.SocialSnapshot, error) {
	_, span := s.tracer.Start(ctx, "topic-service.topic")
	defer span.End()

	if s.provider == nil {
		return domain.SocialSnapshot{}, fmt.Errorf("topic service is not fully initialized")
	}

	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return domain.SocialSnapshot{}, fmt.Errorf("symbol is required")
	}

	key := "topic:" + symbol
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			var snap domain.SocialSnapshot
			if err := json.Unmarshal([]byte(cached), &snap); err == nil {
				return snap, nil
			}
		}
	}

	snap, err := s.provider.Topic(ctx, symbol)
	if err != nil {
		return domain.SocialSnapshot{}, err
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(snap); err == nil {
			if err := s.cache.Set(ctx, key, encoded, s.ttl).Err(); err != nil {
				log.Printf("topic cache write failed for %s: %v", symbol, err)
			}
		}
	}
	return snap, nil
}

// Healthy checks the upstream feed. Used by the deep health probe only;
// the plain liveness endpoint never calls out.
func (s *TopicService) Healthy(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "topic-service.healthy")
	defer span.End()

	if s.provider == nil {
		return fmt.Errorf("topic service is not fully initialized")
	}
	return s.provider.Healthy(ctx)
}
