package job

import (
	"context"
	"log"
	"math"
	"time"

	"lunar-oracle/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	defaultResolveInterval = 30 * time.Minute
	resolveBatchSize       = 50

	// A move inside this band counts as sideways when scoring neutral calls.
	neutralBandPercent = 1.5
)

type ResolutionStore interface {
	ListExpiredActive(ctx context.Context, limit int) ([]domain.PredictionRecord, error)
	ResolvePrediction(ctx context.Context, id string, actualChange, accuracyScore float64) error
}

type PriceReader interface {
	Topic(ctx context.Context, symbol string) (domain.SocialSnapshot, error)
}

// ResolutionPoller periodically scores expired predictions against the
// observed market move. Resolution runs out of band; the serving paths
// never wait on it.
type ResolutionPoller struct {
	tracer   trace.Tracer
	store    ResolutionStore
	feed     PriceReader
	interval time.Duration
}

func NewResolutionPoller(tracer trace.Tracer, store ResolutionStore, feed PriceReader, interval time.Duration) *ResolutionPoller {
	if interval <= 0 {
		interval = defaultResolveInterval
	}
	return &ResolutionPoller{
		tracer:   tracer,
		store:    store,
		feed:     feed,
		interval: interval,
	}
}

// Start blocks until ctx is cancelled.
func (p *ResolutionPoller) Start(ctx context.Context) {
	if p.store == nil || p.feed == nil {
		log.Println("Resolution poller disabled: missing store or price feed")
		<-ctx.Done()
		return
	}

	log.Println("Resolution poller starting...")
	p.runPass(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Resolution poller stopped")
			return
		case <-ticker.C:
			p.runPass(ctx)
		}
	}
}

func (p *ResolutionPoller) runPass(ctx context.Context) {
	resolved, err := p.ResolveExpired(ctx)
	if err != nil {
		log.Printf("resolution pass error: %v", err)
		return
	}
	if resolved > 0 {
		log.Printf("resolved %d expired predictions", resolved)
	}
}

// ResolveExpired scores one batch of expired active predictions and returns
// how many were resolved. Individual failures skip the record and leave it
// for the next pass.
func (p *ResolutionPoller) ResolveExpired(ctx context.Context) (int, error) {
	_, span := p.tracer.Start(ctx, "resolution-poller.resolve-expired")
	defer span.End()

	expired, err := p.store.ListExpiredActive(ctx, resolveBatchSize)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, rec := range expired {
		snap, err := p.feed.Topic(ctx, rec.Symbol)
		if err != nil {
			log.Printf("resolution price fetch failed for %s: %v", rec.Symbol, err)
			continue
		}
		actual := snap.PercentChange24h
		score := scoreOutcome(rec.Direction, actual)
		if err := p.store.ResolvePrediction(ctx, rec.ID, actual, score); err != nil {
			log.Printf("resolution update failed for prediction %s: %v", rec.ID, err)
			continue
		}
		resolved++
	}
	return resolved, nil
}

// scoreOutcome grades a direction call against the realized move: 100 for a
// hit, 0 for a miss. Neutral calls hit when the move stayed inside the
// sideways band.
func scoreOutcome(direction domain.Direction, actualChange float64) float64 {
	hit := false
	switch direction {
	case domain.DirectionBullish:
		hit = actualChange > 0
	case domain.DirectionBearish:
		hit = actualChange < 0
	case domain.DirectionNeutral:
		hit = math.Abs(actualChange) <= neutralBandPercent
	}
	if hit {
		return 100
	}
	return 0
}
