package db

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is nil unless DATABASE_URL is configured. Backend selection reads it
// once at startup: a connected pool wins over the D1 credentials and the
// in-memory fallback, so a missing DSN is a valid configuration, not an
// error.
var Pool *pgxpool.Pool

// InitPostgres connects the pool when DATABASE_URL is set. A DSN that is
// present but unreachable is fatal: falling back to another backend would
// silently strand the prediction history the operator asked for.
func InitPostgres(ctx context.Context) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Println("DATABASE_URL not set, prediction storage falls back to D1 or memory")
		return
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("failed to ping Postgres: %v", err)
	}
	Pool = pool
	log.Println("Connected to Postgres")
}
