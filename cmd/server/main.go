package main

import (
	"context"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"lunar-oracle/internal/advisor"
	"lunar-oracle/internal/bot"
	"lunar-oracle/internal/cache"
	"lunar-oracle/internal/config"
	"lunar-oracle/internal/db"
	"lunar-oracle/internal/handler"
	"lunar-oracle/internal/job"
	"lunar-oracle/internal/provider"
	"lunar-oracle/internal/repository"
	"lunar-oracle/internal/service"
	"lunar-oracle/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "lunar-oracle/docs"
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
	newOpenAIClientFunc      = advisor.NewOpenAIClient
	newAdvisorFunc           = advisor.New
	newPredictionServiceFunc = service.NewPredictionService
	newAgentServiceFunc      = service.NewAgentService
	newTopicServiceFunc      = service.NewTopicService
	newResolutionPollerFunc  = job.NewResolutionPoller
	startResolutionPoller    = func(p *job.ResolutionPoller, ctx context.Context) { go p.Start(ctx) }
	startTelegramBotFunc     = bot.StartTelegramBot
	newHandlerFunc           = handler.New
	newRouterFunc            = gin.Default
	setupSignalNotify        = ossignal.Notify
	waitForSignalFunc        = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc      = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc   = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Lunar Oracle API
// @version         1.0
// @description     Social-sentiment crypto prediction service with OpenTelemetry tracing.

// @host      localhost:8080
// @BasePath  /
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

	// Storage backend is chosen once at startup and never re-selected.
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

	if pg, ok := store.(*repository.PostgresStore); ok {
		if err := pg.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	lunarProvider := newProviderFunc(cfg.LunarCrushAPIKey, tracer)
	oracle := newAdvisorFunc(tracer, newOpenAIClientFunc(cfg.OpenAIAPIKey), cfg.OpenAIModel)

	predictionService := newPredictionServiceFunc(tracer, lunarProvider, oracle, store)
	agentService := newAgentServiceFunc(tracer, predictionService, oracle, lunarProvider, store)
	topicService := newTopicServiceFunc(tracer, lunarProvider, cache.Client, time.Duration(cfg.TopicCacheSecs)*time.Second)

	resolutionPoller := newResolutionPollerFunc(tracer, store, lunarProvider, time.Duration(cfg.ResolvePollSecs)*time.Second)
	startResolutionPoller(resolutionPoller, ctx)

	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	startTelegramBotFunc(predictionService, agentService)

	h := newHandlerFunc(tracer, topicService, predictionService, agentService, string(backend))

	r := newRouterFunc()
	r.Use(cors.Default())
	r.Use(otelgin.Middleware("lunar-oracle"))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    httpAddrFromEnv(),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

func httpAddrFromEnv() string {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		return ":8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}
