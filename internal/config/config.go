package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	LunarCrushAPIKey string
	OpenAIAPIKey     string
	OpenAIModel      string

	DatabaseURL string
	RedisURL    string

	CloudflareAccountID  string
	CloudflareDatabaseID string
	CloudflareAPIToken   string

	TelegramBotToken string

	ResolvePollSecs int
	TopicCacheSecs  int
}

func Load() *Config {
	cfg := &Config{
		LunarCrushAPIKey:     os.Getenv("LUNARCRUSH_API_KEY"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		CloudflareAccountID:  os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		CloudflareDatabaseID: os.Getenv("CLOUDFLARE_D1_DATABASE_ID"),
		CloudflareAPIToken:   os.Getenv("CLOUDFLARE_API_TOKEN"),
		TelegramBotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if cfg.LunarCrushAPIKey == "" {
		log.Println("Warning: LUNARCRUSH_API_KEY not set, social data will use neutral defaults")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, predictions will be disabled")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, topic cache disabled")
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.ResolvePollSecs = 1800
	if v := strings.TrimSpace(os.Getenv("RESOLVE_POLL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ResolvePollSecs = n
		}
	}

	cfg.TopicCacheSecs = 60
	if v := strings.TrimSpace(os.Getenv("TOPIC_CACHE_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TopicCacheSecs = n
		}
	}

	return cfg
}

// HasDurableCredentials reports whether the three Cloudflare D1 credentials
// are all present. Their presence is the sole switch between durable and
// in-memory storage when no Postgres DSN is configured.
func (c *Config) HasDurableCredentials() bool {
	return c.CloudflareAccountID != "" && c.CloudflareDatabaseID != "" && c.CloudflareAPIToken != ""
}
