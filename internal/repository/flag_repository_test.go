package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagRepositoryWithoutClient(t *testing.T) {
	repo := NewFlagRepository(nil)

	value, found, err := repo.GetBool(context.Background(), "feature:sheet_sync_enabled")
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, value)

	assert.Error(t, repo.SetBool(context.Background(), "feature:sheet_sync_enabled", true))
}

func TestFlagRepositorySurfacesConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	repo := NewFlagRepository(client)

	_, found, err := repo.GetBool(context.Background(), "feature:sheet_sync_enabled")
	require.Error(t, err)
	assert.False(t, found)
	assert.Contains(t, err.Error(), "redis get feature:sheet_sync_enabled")

	err = repo.SetBool(context.Background(), "feature:sheet_sync_enabled", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set feature:sheet_sync_enabled")
}
