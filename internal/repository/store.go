package repository

import (
	"context"
	"log"

	"lunar-oracle/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

// DefaultPageSize bounds every history read.
const DefaultPageSize = 50

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the single capability interface every backend implements. The
// Prediction layer never touches storage directly and never branches on
// which backend it got.
type Store interface {
	InsertPrediction(ctx context.Context, rec *domain.PredictionRecord) (string, error)
	ListPredictions(ctx context.Context, symbol string, limit int) ([]domain.PredictionRecord, error)
	InsertSnapshot(ctx context.Context, snap domain.SocialSnapshot) error
	InsertInteraction(ctx context.Context, userID, message, response string, confidence float64) error
	RollingAccuracy(ctx context.Context, symbol string) (float64, error)
}

// ResolvableStore adds the resolution surface used by the out-of-band
// scoring job. It is deliberately not part of Store: the prediction
// pipeline only appends.
type ResolvableStore interface {
	Store
	ListExpiredActive(ctx context.Context, limit int) ([]domain.PredictionRecord, error)
	ResolvePrediction(ctx context.Context, id string, actualChange, accuracyScore float64) error
}

type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendD1       Backend = "d1"
	BackendMemory   Backend = "memory"
)

// SelectConfig carries everything backend selection depends on.
type SelectConfig struct {
	DatabaseURL string
	Pool        PgxPool

	CloudflareAccountID  string
	CloudflareDatabaseID string
	CloudflareAPIToken   string
}

func (c SelectConfig) hasD1Credentials() bool {
	return c.CloudflareAccountID != "" && c.CloudflareDatabaseID != "" && c.CloudflareAPIToken != ""
}

// Select picks the storage backend once at startup: Postgres when a pool is
// connected, the Cloudflare D1 HTTP API when its three credentials are
// present, and the in-memory fallback otherwise. The choice is a pure
// function of configuration; callers must not branch on the result beyond
// logging it.
func Select(cfg SelectConfig, tracer trace.Tracer) (ResolvableStore, Backend) {
	switch {
	case cfg.Pool != nil && cfg.DatabaseURL != "":
		return NewPostgresStore(cfg.Pool, tracer), BackendPostgres
	case cfg.hasD1Credentials():
		return NewD1Store(cfg.CloudflareAccountID, cfg.CloudflareDatabaseID, cfg.CloudflareAPIToken, tracer), BackendD1
	default:
		log.Println("No durable storage configured, using in-memory store (process lifetime only)")
		return NewMemoryStore(tracer), BackendMemory
	}
}

func clampPageSize(limit int) int {
	if limit <= 0 || limit > DefaultPageSize {
		return DefaultPageSize
	}
	return limit
}
