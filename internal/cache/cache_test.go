package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"solo-rising/internal/config"
	"solo-rising/internal/model"
	"solo-rising/internal/pkg/dbtest"
)

func TestLRU_SetGetDelete(t *testing.T) {
	c, err := NewLRU(8, 0)
	require.NoError(t, err)
	ctx := context.Background()

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)

	c.Set(ctx, &model.User{ID: 1, Points: 40, Streak: 2})
	got, ok := c.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, int64(40), got.Points)

	got.Points = 999
	again, _ := c.Get(ctx, 1)
	assert.Equal(t, int64(40), again.Points, "callers must not mutate cached rows")

	c.Set(ctx, &model.User{ID: 1, Points: 55})
	again, _ = c.Get(ctx, 1)
	assert.Equal(t, int64(55), again.Points, "writes overwrite the entry")

	c.Delete(ctx, 1)
	_, ok = c.Get(ctx, 1)
	assert.False(t, ok)
}

func TestLRU_IgnoresOlderVersion(t *testing.T) {
	c, err := NewLRU(8, 0)
	require.NoError(t, err)
	ctx := context.Background()

	// a reader loaded version 3, then a workout committed version 4 and
	// cached it before the reader got around to writing its copy
	c.Set(ctx, &model.User{ID: 1, Points: 60, Version: 4})
	c.Set(ctx, &model.User{ID: 1, Points: 40, Version: 3})

	got, ok := c.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, int64(60), got.Points)
	assert.Equal(t, int64(4), got.Version)

	c.Set(ctx, &model.User{ID: 1, Points: 75, Version: 5})
	got, _ = c.Get(ctx, 1)
	assert.Equal(t, int64(75), got.Points)
}

func TestLRU_TTL(t *testing.T) {
	c, err := NewLRU(8, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.Set(ctx, &model.User{ID: 7})

	now = now.Add(59 * time.Second)
	_, ok := c.Get(ctx, 7)
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.Get(ctx, 7)
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestLRU_Evicts(t *testing.T) {
	c, err := NewLRU(2, 0)
	require.NoError(t, err)
	ctx := context.Background()

	for id := int64(1); id <= 3; id++ {
		c.Set(ctx, &model.User{ID: id})
	}
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.CacheConfig{Driver: "memcached"}, config.RedisConfig{})
	assert.Error(t, err)

	c, err := New(context.Background(), config.CacheConfig{Driver: "none"}, config.RedisConfig{})
	require.NoError(t, err)
	c.Set(context.Background(), &model.User{ID: 1})
	_, ok := c.Get(context.Background(), 1)
	assert.False(t, ok)
}

func TestRedis_RoundTrip(t *testing.T) {
	if !dbtest.DockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer func() { _ = container.Terminate(ctx) }()

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	c, err := NewRedis(ctx, config.RedisConfig{Addr: addr}, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	last := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	character := model.CharacterJinWoo
	c.Set(ctx, &model.User{ID: 3, Points: 57, Coins: 1, Streak: 4, LastWorkoutAt: &last, CharacterType: &character})

	got, ok := c.Get(ctx, 3)
	require.True(t, ok)
	assert.Equal(t, int64(57), got.Points)
	require.NotNil(t, got.LastWorkoutAt)
	assert.True(t, last.Equal(*got.LastWorkoutAt))
	assert.Equal(t, model.CharacterJinWoo, *got.CharacterType)

	ttl, err := c.client.TTL(ctx, key(3)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.client.Set(ctx, key(4), "not json", 0).Err())
	_, ok = c.Get(ctx, 4)
	assert.False(t, ok)
	_, err = c.client.Get(ctx, key(4)).Result()
	assert.ErrorIs(t, err, redis.Nil, "undecodable entries are dropped")

	c.Set(ctx, &model.User{ID: 5, Points: 60, Version: 4})
	c.Set(ctx, &model.User{ID: 5, Points: 40, Version: 3})
	got, ok = c.Get(ctx, 5)
	require.True(t, ok)
	assert.Equal(t, int64(60), got.Points, "an older snapshot never replaces a newer one")

	c.Set(ctx, &model.User{ID: 5, Points: 80, Version: 6})
	got, _ = c.Get(ctx, 5)
	assert.Equal(t, int64(80), got.Points)

	c.Delete(ctx, 3)
	_, ok = c.Get(ctx, 3)
	assert.False(t, ok)
}
