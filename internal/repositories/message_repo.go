package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/fitrelay/strava-discord/internal/models"
)

const seenKeyPrefix = "seen:"

type RedisMessageRepository struct {
	client *redis.Client
}

func NewRedisMessageRepository(client *redis.Client) *RedisMessageRepository {
	return &RedisMessageRepository{client: client}
}

// Insert writes the seen-record with SET NX so that concurrent deliveries
// of the same activity id cannot both claim it. No TTL: entries are kept
// indefinitely.
func (r *RedisMessageRepository) Insert(ctx context.Context, msg *models.SeenMessage) (bool, error) {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return false, fmt.Errorf("failed to marshal seen message: %w", err)
	}

	key := fmt.Sprintf("%s%d", seenKeyPrefix, msg.ActivityID)

	inserted, err := r.client.SetNX(ctx, key, jsonData, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to insert seen message: %w", err)
	}
	return inserted, nil
}

func (r *RedisMessageRepository) Get(ctx context.Context, activityID int64) (*models.SeenMessage, error) {
	key := fmt.Sprintf("%s%d", seenKeyPrefix, activityID)

	jsonData, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get seen message: %w", err)
	}

	var msg models.SeenMessage
	if err := json.Unmarshal([]byte(jsonData), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seen message: %w", err)
	}
	return &msg, nil
}
