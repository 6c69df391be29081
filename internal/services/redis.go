package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ParcelUpdatesChannel carries every parcel_update event as JSON.
const ParcelUpdatesChannel = "parcel:updates"

// NonceTTL bounds how long a login nonce can be redeemed.
const NonceTTL = 5 * time.Minute

var ErrNonceNotFound = errors.New("login nonce not found or expired")

// RedisClient is nil when Redis is not configured; every helper tolerates that.
var RedisClient *redis.Client

// InitRedis initializes the Redis client
func InitRedis(redisURL string) error {
	if redisURL == "" {
		return fmt.Errorf("redis URL not configured")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	RedisClient = client
	return nil
}

func nonceKey(wallet string) string {
	return "auth:nonce:" + strings.ToLower(wallet)
}

// IssueNonce stores a fresh login nonce for wallet and returns it.
func IssueNonce(ctx context.Context, wallet string) (string, error) {
	if RedisClient == nil {
		return "", fmt.Errorf("redis not configured")
	}

	nonce := uuid.NewString()
	if err := RedisClient.Set(ctx, nonceKey(wallet), nonce, NonceTTL).Err(); err != nil {
		return "", err
	}
	return nonce, nil
}

// ConsumeNonce returns and deletes the pending nonce for wallet so each nonce
// verifies at most once.
func ConsumeNonce(ctx context.Context, wallet string) (string, error) {
	if RedisClient == nil {
		return "", fmt.Errorf("redis not configured")
	}

	nonce, err := RedisClient.GetDel(ctx, nonceKey(wallet)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNonceNotFound
	}
	if err != nil {
		return "", err
	}
	return nonce, nil
}

// PublishParcelUpdate publishes a parcel event to Redis pub/sub. It is a no-op
// without Redis.
func PublishParcelUpdate(ctx context.Context, event ParcelEvent) error {
	if RedisClient == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, ParcelUpdatesChannel, data).Err()
}
