package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFlags struct {
	values map[string]bool
	err    error
}

func (f *fakeFlags) GetBool(ctx context.Context, key string) (bool, bool, error) {
	if f.err != nil {
		return false, false, f.err
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeFlags) SetBool(ctx context.Context, key string, value bool) error {
	if f.err != nil {
		return f.err
	}
	if f.values == nil {
		f.values = map[string]bool{}
	}
	f.values[key] = value
	return nil
}

func TestStaticSyncToggle(t *testing.T) {
	toggle := NewStaticSyncToggle(true)
	assert.True(t, toggle.Enabled(context.Background()))
	require.NoError(t, toggle.SetEnabled(context.Background(), false))
	assert.False(t, toggle.Enabled(context.Background()))
	assert.Equal(t, ToggleSourceConfig, toggle.Source())
}

func TestRedisSyncToggle(t *testing.T) {
	flags := &fakeFlags{}
	toggle := NewRedisSyncToggle(flags, "", true, nil)

	assert.True(t, toggle.Enabled(context.Background()), "absent key uses configured default")

	require.NoError(t, toggle.SetEnabled(context.Background(), false))
	assert.False(t, flags.values["feature:sheet_sync_enabled"])
	assert.False(t, toggle.Enabled(context.Background()))
	assert.Equal(t, ToggleSourceRedis, toggle.Source())

	flags.err = errors.New("connection refused")
	assert.True(t, toggle.Enabled(context.Background()), "unreachable store uses configured default")
	assert.Error(t, toggle.SetEnabled(context.Background(), true))
}
