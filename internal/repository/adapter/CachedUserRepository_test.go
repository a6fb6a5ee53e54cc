package adapter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheport "go-chatline/internal/infrastructure/cache/port"
	chat "go-chatline/internal/pkg/chat/application/domain"
)

type mapCache struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
}

func newMapCache() *mapCache { return &mapCache{data: map[string]string{}} }

func (c *mapCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", c.getErr
	}
	v, ok := c.data[key]
	if !ok {
		return "", cacheport.ErrMiss
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Del(_ context.Context, keys ...string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := c.data[k]; ok {
			delete(c.data, k)
			n++
		}
	}
	return n, nil
}

func (c *mapCache) Ping(context.Context) error { return nil }
func (c *mapCache) Close() error               { return nil }

type countingUsers struct {
	calls atomic.Int32
	delay time.Duration
	users map[string]chat.User
}

func (s *countingUsers) FindByID(_ context.Context, id string) (*chat.User, error) {
	s.calls.Add(1)
	time.Sleep(s.delay)
	u, ok := s.users[id]
	if !ok {
		return nil, chat.ErrNotFound
	}
	return &u, nil
}

func (s *countingUsers) ListUsersExcept(_ context.Context, excludeID string) ([]chat.User, error) {
	s.calls.Add(1)
	var out []chat.User
	for id, u := range s.users {
		if id != excludeID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *countingUsers) GetPushSubscription(context.Context, string) (*chat.PushSubscription, error) {
	return nil, nil
}

func (s *countingUsers) SavePushSubscription(context.Context, string, chat.PushSubscription) error {
	return nil
}

func TestCachedUserRepository_CachesHits(t *testing.T) {
	store := &countingUsers{users: map[string]chat.User{"u1": {ID: "u1", Username: "alice"}}}
	repo := NewCachedUserRepository(store, newMapCache(), time.Minute, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		u, err := repo.FindByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Username)
	}
	assert.EqualValues(t, 1, store.calls.Load())
}

func TestCachedUserRepository_ListingBypassesCache(t *testing.T) {
	store := &countingUsers{users: map[string]chat.User{
		"u1": {ID: "u1", Username: "alice"},
		"u2": {ID: "u2", Username: "bob"},
	}}
	repo := NewCachedUserRepository(store, newMapCache(), time.Minute, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		users, err := repo.ListUsersExcept(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "bob", users[0].Username)
	}
	assert.EqualValues(t, 2, store.calls.Load())
}

func TestCachedUserRepository_CollapsesConcurrentMisses(t *testing.T) {
	store := &countingUsers{delay: 50 * time.Millisecond, users: map[string]chat.User{"u1": {ID: "u1"}}}
	repo := NewCachedUserRepository(store, newMapCache(), time.Minute, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.FindByID(context.Background(), "u1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, store.calls.Load())
}

func TestCachedUserRepository_MissingUserIsNotCached(t *testing.T) {
	store := &countingUsers{users: map[string]chat.User{}}
	repo := NewCachedUserRepository(store, newMapCache(), time.Minute, zerolog.Nop())

	_, err := repo.FindByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, chat.ErrNotFound)
	_, err = repo.FindByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, chat.ErrNotFound)
	assert.EqualValues(t, 2, store.calls.Load())
}

func TestCachedUserRepository_CacheFailureFallsThrough(t *testing.T) {
	cache := newMapCache()
	cache.getErr = errors.New("connection refused")
	store := &countingUsers{users: map[string]chat.User{"u1": {ID: "u1"}}}
	repo := NewCachedUserRepository(store, cache, time.Minute, zerolog.Nop())

	u, err := repo.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}
