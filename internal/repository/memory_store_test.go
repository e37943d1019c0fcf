package repository

import (
	"context"
	"testing"
	"time"

	"lunar-oracle/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

func newTestMemoryStore() *MemoryStore {
	return NewMemoryStore(trace.NewNoopTracerProvider().Tracer("test"))
}

func seedPrediction(t *testing.T, store *MemoryStore, symbol string, createdAt time.Time) string {
	t.Helper()
	id, err := store.InsertPrediction(context.Background(), &domain.PredictionRecord{
		Symbol:         symbol,
		Direction:      domain.DirectionBullish,
		Confidence:     70,
		TimeframeHours: 24,
		CreatedAt:      createdAt,
		ExpiresAt:      createdAt.Add(24 * time.Hour),
		Status:         domain.StatusActive,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	return id
}

func TestMemoryInsertAssignsUniqueIDs(t *testing.T) {
	store := newTestMemoryStore()
	now := time.Now().UTC()

	first := seedPrediction(t, store, "bitcoin", now)
	second := seedPrediction(t, store, "bitcoin", now)
	if first == "" || first == second {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", first, second)
	}
}

func TestMemoryListNewestFirstWithSymbolFilter(t *testing.T) {
	store := newTestMemoryStore()
	base := time.Now().UTC()

	seedPrediction(t, store, "bitcoin", base)
	seedPrediction(t, store, "ethereum", base.Add(time.Minute))
	last := seedPrediction(t, store, "bitcoin", base.Add(2*time.Minute))

	records, err := store.ListPredictions(context.Background(), "bitcoin", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 bitcoin records, got %d", len(records))
	}
	if records[0].ID != last {
		t.Fatalf("expected newest first, got %+v", records)
	}
}

func TestMemoryListClampsLimit(t *testing.T) {
	store := newTestMemoryStore()
	now := time.Now().UTC()
	for i := 0; i < DefaultPageSize+10; i++ {
		seedPrediction(t, store, "bitcoin", now)
	}

	records, err := store.ListPredictions(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != DefaultPageSize {
		t.Fatalf("expected %d records, got %d", DefaultPageSize, len(records))
	}
}

func TestMemoryRollingAccuracy(t *testing.T) {
	store := newTestMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	acc, err := store.RollingAccuracy(ctx, "bitcoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc != domain.DefaultAccuracy {
		t.Fatalf("expected default accuracy with no history, got %f", acc)
	}

	first := seedPrediction(t, store, "bitcoin", now)
	second := seedPrediction(t, store, "bitcoin", now)
	seedPrediction(t, store, "bitcoin", now) // stays unresolved

	if err := store.ResolvePrediction(ctx, first, 2.0, 100); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := store.ResolvePrediction(ctx, second, -1.0, 0); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	acc, err = store.RollingAccuracy(ctx, "bitcoin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc != 50 {
		t.Fatalf("expected mean of resolved scores, got %f", acc)
	}
}

func TestMemoryListExpiredActive(t *testing.T) {
	store := newTestMemoryStore()
	ctx := context.Background()
	past := time.Now().UTC().Add(-48 * time.Hour)

	expired := seedPrediction(t, store, "bitcoin", past)
	fresh := seedPrediction(t, store, "bitcoin", time.Now().UTC())

	records, err := store.ListExpiredActive(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].ID != expired {
		t.Fatalf("expected only the expired record, got %+v", records)
	}

	if err := store.ResolvePrediction(ctx, expired, 1.0, 100); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	records, err = store.ListExpiredActive(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("resolved record must not reappear, got %+v", records)
	}
	_ = fresh
}

func TestMemoryReadsReturnCopies(t *testing.T) {
	store := newTestMemoryStore()
	seedPrediction(t, store, "bitcoin", time.Now().UTC())

	records, _ := store.ListPredictions(context.Background(), "", 10)
	records[0].Symbol = "mutated"

	again, _ := store.ListPredictions(context.Background(), "", 10)
	if again[0].Symbol != "bitcoin" {
		t.Fatal("expected stored record unaffected by caller mutation")
	}
}
