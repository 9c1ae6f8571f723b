// internal/workers/profile/saved-locations/redis_backend.go
package savedlocations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"rouvia/internal/common/database"
	"rouvia/internal/models"

	"github.com/redis/go-redis/v9"
)

const maxWatchAttempts = 3

// RedisBackend stores each profile as one JSON string under prefix+userID.
type RedisBackend struct {
	client *database.RedisClient
	prefix string
}

func NewRedisBackend(client *database.RedisClient, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) key(userID string) string {
	return b.prefix + userID
}

func (b *RedisBackend) Load(ctx context.Context, userID string, seed *models.UserProfile) (*models.UserProfile, error) {
	key := b.key(userID)

	data, err := json.Marshal(seed)
	if err != nil {
		return nil, fmt.Errorf("encode seed profile: %w", err)
	}
	created, err := b.client.SetNX(ctx, key, string(data))
	if err != nil {
		return nil, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if created {
		return cloneProfile(seed), nil
	}

	raw, err := b.client.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return decodeProfile([]byte(raw))
}

func (b *RedisBackend) Update(ctx context.Context, userID string, seed *models.UserProfile, fn func(*models.UserProfile) bool) (bool, error) {
	key := b.key(userID)
	changed := false

	txf := func(tx *redis.Tx) error {
		changed = false
		profile := cloneProfile(seed)

		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if profile, err = decodeProfile(raw); err != nil {
				return err
			}
		}

		if !fn(profile) {
			return nil
		}
		data, err := json.Marshal(profile)
		if err != nil {
			return fmt.Errorf("encode profile: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, string(data), 0)
			return nil
		})
		if err == nil {
			changed = true
		}
		return err
	}

	for attempt := 0; attempt < maxWatchAttempts; attempt++ {
		err := b.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("redis update %s: %w", key, err)
		}
		return changed, nil
	}
	return false, fmt.Errorf("redis update %s: %w", key, redis.TxFailedErr)
}

func decodeProfile(raw []byte) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}
