package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/genbyt/genbyt-backend/config"
	"github.com/genbyt/genbyt-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// viewedPairTTL bounds the memory held by the pre-check sets; the unique
// constraint in the store still dedupes after expiry.
const viewedPairTTL = 24 * time.Hour

// Init initializes the Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// ViewCache tracks (listing, viewer) pairs already recorded, so repeat
// fetches skip a round trip to the database. Misses are harmless.
type ViewCache struct {
	client *redis.Client
}

func NewViewCache(client *redis.Client) *ViewCache {
	return &ViewCache{client: client}
}

func viewedKey(listingID uint) string {
	return fmt.Sprintf("viewed:%d", listingID)
}

func (c *ViewCache) Seen(ctx context.Context, listingID, viewerID uint) bool {
	seen, err := c.client.SIsMember(ctx, viewedKey(listingID), viewerID).Result()
	if err != nil {
		logger.Debug("View cache lookup failed", map[string]interface{}{
			"listing_id": listingID,
			"error":      err.Error(),
		})
		return false
	}
	return seen
}

func (c *ViewCache) Mark(ctx context.Context, listingID, viewerID uint) {
	key := viewedKey(listingID)
	if err := c.client.SAdd(ctx, key, viewerID).Err(); err != nil {
		logger.Debug("View cache mark failed", map[string]interface{}{
			"listing_id": listingID,
			"error":      err.Error(),
		})
		return
	}
	c.client.Expire(ctx, key, viewedPairTTL)
}
