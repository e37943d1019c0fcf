package cache

import (
	"context"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
)

var Client *redis.Client

// InitRedis connects when REDIS_URL is set. The cache is optional: without
// it topic reads simply go straight to the upstream API every time.
func InitRedis(ctx context.Context) {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		log.Println("REDIS_URL not set, topic caching disabled")
		return
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("failed to connect to Redis, topic caching disabled: %v", err)
		return
	}
	Client = client
	log.Println("Connected to Redis")
}
