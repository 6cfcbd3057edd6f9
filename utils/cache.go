// File: utils/cache.go
package utils

import (
	"barberbot/config"
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// ConversationCacheClient backs the Redis conversation store.
var ConversationCacheClient *redis.Client

// InitConversationCache connects to the Redis DB that holds conversation records.
func InitConversationCache() {
	ConversationCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisConversationDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := ConversationCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Conversations): %v", err)
	}
}

// GetConversationCacheClient returns the conversation Redis client.
func GetConversationCacheClient() *redis.Client {
	if ConversationCacheClient == nil {
		InitConversationCache()
	}
	return ConversationCacheClient
}
