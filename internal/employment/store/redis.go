package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "civica/pkg/domain"
	"civica/pkg/platform/sentinel"
)

// Redis tracks last-earn timestamps in Redis so cooldowns survive restarts
// and can be shared by multiple engine instances.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func cooldownKey(citizenID id.CitizenID) string {
	return "civica:last_earn:" + citizenID.String()
}

func (s *Redis) LastEarn(ctx context.Context, citizenID id.CitizenID) (time.Time, error) {
	value, err := s.client.Get(ctx, cooldownKey(citizenID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, sentinel.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("get last earn: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last earn: %w", err)
	}
	return at, nil
}

func (s *Redis) SetLastEarn(ctx context.Context, citizenID id.CitizenID, at time.Time) error {
	err := s.client.Set(ctx, cooldownKey(citizenID), at.Format(time.RFC3339Nano), 0).Err()
	if err != nil {
		return fmt.Errorf("set last earn: %w", err)
	}
	return nil
}
