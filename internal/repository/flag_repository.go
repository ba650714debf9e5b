package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// FlagRepository stores boolean runtime flags in Redis. A nil client behaves
// as an empty store.
type FlagRepository struct {
	client *redis.Client
}

// NewFlagRepository constructs a flag repository.
func NewFlagRepository(client *redis.Client) *FlagRepository {
	return &FlagRepository{client: client}
}

// GetBool reads key. found is false when the key is absent.
func (r *FlagRepository) GetBool(ctx context.Context, key string) (value bool, found bool, err error) {
	if r == nil || r.client == nil {
		return false, false, nil
	}
	raw, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	value, err = strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("parse flag %s: %w", key, err)
	}
	return value, true, nil
}

// SetBool persists key without expiry.
func (r *FlagRepository) SetBool(ctx context.Context, key string, value bool) error {
	if r == nil || r.client == nil {
		return errors.New("flag store not configured")
	}
	if err := r.client.Set(ctx, key, strconv.FormatBool(value), 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
