package main

import (
	"context"
	"log"
	"os"
	"time"

	"lunar-oracle/internal/advisor"
	"lunar-oracle/internal/cache"
	"lunar-oracle/internal/config"
	"lunar-oracle/internal/db"
	mcpserver "lunar-oracle/internal/mcp"
	"lunar-oracle/internal/provider"
	"lunar-oracle/internal/repository"
	"lunar-oracle/internal/service"
	"lunar-oracle/pkg/tracing"

	"github.com/joho/godotenv"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	initTracerFunc   = tracing.InitTracer
	selectStoreFunc  = repository.Select
	newProviderFunc  = func(apiKey string, tracer trace.Tracer) *provider.LunarCrushProvider {
		return provider.NewLunarCrushProvider(apiKey, tracer)
	}
	newOpenAIClientFunc = advisor.NewOpenAIClient
	newMCPServerFunc    = mcpserver.NewServer
	runStdioFunc        = func(ctx context.Context, server *sdkmcp.Server) error {
		return server.Run(ctx, &sdkmcp.StdioTransport{})
	}
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	var pool repository.PgxPool
	if db.Pool != nil {
		pool = db.Pool
	}
	store, backend := selectStoreFunc(repository.SelectConfig{
		DatabaseURL:          cfg.DatabaseURL,
		Pool:                 pool,
		CloudflareAccountID:  cfg.CloudflareAccountID,
		CloudflareDatabaseID: cfg.CloudflareDatabaseID,
		CloudflareAPIToken:   cfg.CloudflareAPIToken,
	}, tracer)
	log.Printf("storage backend: %s", backend)

	lunarProvider := newProviderFunc(cfg.LunarCrushAPIKey, tracer)
	oracle := advisor.New(tracer, newOpenAIClientFunc(cfg.OpenAIAPIKey), cfg.OpenAIModel)

	predictionService := service.NewPredictionService(tracer, lunarProvider, oracle, store)
	topicService := service.NewTopicService(tracer, lunarProvider, cache.Client, time.Duration(cfg.TopicCacheSecs)*time.Second)

	mcpSrv := newMCPServerFunc(tracer, predictionService, topicService, mcpserver.ServerConfig{})

	if err := runStdioFunc(ctx, mcpSrv); err != nil {
		log.Fatalf("mcp stdio server failed: %v", err)
	}
}
