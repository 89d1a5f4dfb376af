package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"sensor-anomaly-engine/models"
)

// outcomeTTL keeps cached outcomes short-lived; the engine is the source of
// truth, redis only serves the latest-outcome lookups.
const outcomeTTL = 5 * time.Minute

type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisClient(addr string) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     "",
		DB:           0,
		PoolSize:     50,
		MinIdleConns: 10,
		MaxRetries:   3,
	})

	ctx := context.Background()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisClient{
		client: rdb,
		ctx:    ctx,
	}, nil
}

func (rc *RedisClient) Close() error {
	return rc.client.Close()
}

// SaveOutcome caches the latest detection outcome for a device.
func (rc *RedisClient) SaveOutcome(deviceID string, outcome models.DetectionOutcome) error {
	key := "outcome:" + deviceID

	data, err := json.Marshal(outcome)
	if err != nil {
		return err
	}

	return rc.client.Set(rc.ctx, key, data, outcomeTTL).Err()
}

// GetOutcome returns the cached outcome for a device, or nil if absent.
func (rc *RedisClient) GetOutcome(deviceID string) (*models.DetectionOutcome, error) {
	key := "outcome:" + deviceID

	val, err := rc.client.Get(rc.ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var outcome models.DetectionOutcome
	if err := json.Unmarshal([]byte(val), &outcome); err != nil {
		return nil, err
	}

	return &outcome, nil
}
