package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"solo-rising/internal/config"
	"solo-rising/internal/model"
)

// setIfNewer writes ARGV[1] unless the stored snapshot has a higher version
// than ARGV[2]. ARGV[3] is the TTL in milliseconds, 0 for none.
var setIfNewer = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
	local ok, stored = pcall(cjson.decode, cur)
	if ok and type(stored) == 'table' and tonumber(stored.version) and tonumber(stored.version) > tonumber(ARGV[2]) then
		return 0
	end
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// Redis is a ledger cache shared between instances. Redis failures are
// logged and treated as misses.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to redis and verifies the connection with PING.
func NewRedis(ctx context.Context, cfg config.RedisConfig, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     2 * time.Second,
		WriteTimeout:    2 * time.Second,
		PoolSize:        10,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Redis{client: client, ttl: ttl}, nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, userID int64) (*model.User, bool) {
	s, err := r.client.Get(ctx, key(userID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Int64("user_id", userID).Msg("Ledger cache read failed")
		}
		return nil, false
	}

	var u model.User
	if err := json.Unmarshal([]byte(s), &u); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Dropping undecodable ledger cache entry")
		r.Delete(ctx, userID)
		return nil, false
	}
	return &u, true
}

func (r *Redis) Set(ctx context.Context, user *model.User) {
	if user == nil {
		return
	}
	b, err := json.Marshal(user)
	if err != nil {
		return
	}
	err = setIfNewer.Run(ctx, r.client, []string{key(user.ID)}, b, user.Version, r.ttl.Milliseconds()).Err()
	if err != nil {
		log.Warn().Err(err).Int64("user_id", user.ID).Msg("Ledger cache write failed")
	}
}

func (r *Redis) Delete(ctx context.Context, userID int64) {
	err := r.client.Del(ctx, key(userID)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Ledger cache delete failed")
	}
}

// Close closes the redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}
