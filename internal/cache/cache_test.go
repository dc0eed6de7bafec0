package cache

import (
	"context"
	"testing"
	"time"

	"github.com/iwvelando/brrrr-analyzer/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return clock }

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte(`{"monthlyCashflow":1160.16}`)
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'x'

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"monthlyCashflow":1160.16}`, string(got), "stored values are copies")

	clock = clock.Add(59 * time.Second)
	_, ok, _ = m.Get(ctx, "k")
	assert.True(t, ok)

	clock = clock.Add(time.Second)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok, "entries expire after the ttl")
	assert.Equal(t, 0, m.Len())
}

func TestMemoryWithoutTTL(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(0)
	m.now = func() time.Time { return clock }

	require.NoError(t, m.Set(ctx, "k", []byte("v")))
	clock = clock.Add(24 * time.Hour)
	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)

	require.NoError(t, m.Close())
	assert.Equal(t, 0, m.Len())
}

func TestKey(t *testing.T) {
	type request struct {
		Price float64 `json:"price"`
	}

	a, err := Key("calculate", "v1", request{Price: 500000})
	require.NoError(t, err)
	b, err := Key("calculate", "v1", request{Price: 500000})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Contains(t, a, "brrrr:calculate:v1:")

	tests := []struct {
		name    string
		op      string
		version string
		payload request
	}{
		{name: "other operation", op: "timeline", version: "v1", payload: request{Price: 500000}},
		{name: "other rules", op: "calculate", version: "v2", payload: request{Price: 500000}},
		{name: "other payload", op: "calculate", version: "v1", payload: request{Price: 500001}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other, err := Key(tt.op, tt.version, tt.payload)
			require.NoError(t, err)
			assert.NotEqual(t, a, other)
		})
	}

	_, err = Key("calculate", "v1", func() {})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		conf    config.CacheConfig
		want    any
		wantErr bool
	}{
		{name: "memory", conf: config.CacheConfig{Driver: config.CacheMemory, TTL: time.Minute}, want: &Memory{}},
		{name: "redis", conf: config.CacheConfig{Driver: config.CacheRedis, RedisAddr: "localhost:6379"}, want: &Redis{}},
		{name: "none", conf: config.CacheConfig{Driver: config.CacheNone}, want: Nop{}},
		{name: "unknown", conf: config.CacheConfig{Driver: "memcached"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(nil, tt.conf)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, c)
			assert.NoError(t, c.Close())
		})
	}
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Nop{}
	require.NoError(t, c.Set(ctx, "k", []byte("v")))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
