package service

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
)

// Toggle sources reported by SyncToggle.Source.
const (
	ToggleSourceConfig = "config"
	ToggleSourceRedis  = "redis"
)

// SyncToggle gates mirror delivery at runtime.
type SyncToggle interface {
	Enabled(ctx context.Context) bool
	SetEnabled(ctx context.Context, enabled bool) error
	Source() string
}

// StaticSyncToggle holds the flag in process memory, seeded from configuration.
type StaticSyncToggle struct {
	enabled atomic.Bool
}

// NewStaticSyncToggle constructs a toggle with the given initial value.
func NewStaticSyncToggle(enabled bool) *StaticSyncToggle {
	t := &StaticSyncToggle{}
	t.enabled.Store(enabled)
	return t
}

// Enabled implements SyncToggle.
func (t *StaticSyncToggle) Enabled(context.Context) bool {
	return t.enabled.Load()
}

// SetEnabled implements SyncToggle.
func (t *StaticSyncToggle) SetEnabled(_ context.Context, enabled bool) error {
	t.enabled.Store(enabled)
	return nil
}

// Source implements SyncToggle.
func (t *StaticSyncToggle) Source() string {
	return ToggleSourceConfig
}

type flagStore interface {
	GetBool(ctx context.Context, key string) (bool, bool, error)
	SetBool(ctx context.Context, key string, value bool) error
}

// RedisSyncToggle reads the flag from a shared key so every replica agrees.
// An absent key or an unreachable store falls back to the configured value.
type RedisSyncToggle struct {
	flags    flagStore
	key      string
	fallback bool
	logger   *zap.Logger
}

// NewRedisSyncToggle constructs the toggle.
func NewRedisSyncToggle(flags flagStore, key string, fallback bool, logger *zap.Logger) *RedisSyncToggle {
	if logger == nil {
		logger = zap.NewNop()
	}
	if key == "" {
		key = "feature:sheet_sync_enabled"
	}
	return &RedisSyncToggle{flags: flags, key: key, fallback: fallback, logger: logger}
}

// Enabled implements SyncToggle.
func (t *RedisSyncToggle) Enabled(ctx context.Context) bool {
	value, found, err := t.flags.GetBool(ctx, t.key)
	if err != nil {
		t.logger.Warn("sync flag unavailable, using configured default", zap.String("key", t.key), zap.Error(err))
		return t.fallback
	}
	if !found {
		return t.fallback
	}
	return value
}

// SetEnabled implements SyncToggle.
func (t *RedisSyncToggle) SetEnabled(ctx context.Context, enabled bool) error {
	return t.flags.SetBool(ctx, t.key, enabled)
}

// Source implements SyncToggle.
func (t *RedisSyncToggle) Source() string {
	return ToggleSourceRedis
}
