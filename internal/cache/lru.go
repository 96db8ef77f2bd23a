package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"solo-rising/internal/model"
)

// LRU is an in-process ledger cache with an optional entry TTL.
type LRU struct {
	mu    sync.Mutex // serializes version checks in Set
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewLRU creates an LRU cache holding at most size users.
func NewLRU(size int, ttl time.Duration) (*LRU, error) {
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LRU{cache: c, ttl: ttl, now: time.Now}, nil
}

func (l *LRU) Get(_ context.Context, userID int64) (*model.User, bool) {
	v, ok := l.cache.Get(key(userID))
	if !ok {
		return nil, false
	}
	e, ok := v.(entry)
	if !ok {
		return nil, false
	}
	if l.ttl > 0 && l.now().Sub(e.cachedAt) >= l.ttl {
		l.cache.Remove(key(userID))
		return nil, false
	}
	return clone(e.user), true
}

func (l *LRU) Set(_ context.Context, user *model.User) {
	if user == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.cache.Peek(key(user.ID)); ok {
		if e, ok := v.(entry); ok && e.user.Version > user.Version {
			return
		}
	}
	l.cache.Add(key(user.ID), entry{user: clone(user), cachedAt: l.now()})
}

func (l *LRU) Delete(_ context.Context, userID int64) {
	l.cache.Remove(key(userID))
}

// Len returns the number of cached users.
func (l *LRU) Len() int {
	return l.cache.Len()
}
