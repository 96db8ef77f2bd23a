// Package cache holds read-through copies of ledger rows. The database stays
// the source of truth: callers overwrite an entry after every committed write
// and never write to the cache first. Entries are ordered by User.Version, so
// a snapshot read before a newer write can never replace it.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"solo-rising/internal/config"
	"solo-rising/internal/model"
)

// LedgerCache stores user ledger snapshots keyed by user id.
type LedgerCache interface {
	Get(ctx context.Context, userID int64) (*model.User, bool)
	// Set stores user unless the cache already holds a higher version.
	Set(ctx context.Context, user *model.User)
	Delete(ctx context.Context, userID int64)
}

// New builds the cache selected by cfg.Driver.
func New(ctx context.Context, cfg config.CacheConfig, redisCfg config.RedisConfig) (LedgerCache, error) {
	switch cfg.Driver {
	case "", "lru":
		return NewLRU(cfg.Size, cfg.TTL)
	case "redis":
		return NewRedis(ctx, redisCfg, cfg.TTL)
	case "none":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

func key(userID int64) string {
	return "ledger:" + strconv.FormatInt(userID, 10)
}

// clone keeps cached values isolated from callers that mutate the returned
// struct.
func clone(u *model.User) *model.User {
	c := *u
	return &c
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, int64) (*model.User, bool) { return nil, false }
func (Nop) Set(context.Context, *model.User)               {}
func (Nop) Delete(context.Context, int64)                  {}

type entry struct {
	user     *model.User
	cachedAt time.Time
}
