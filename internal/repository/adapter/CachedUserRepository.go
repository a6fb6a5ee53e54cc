package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	cacheport "go-chatline/internal/infrastructure/cache/port"
	chat "go-chatline/internal/pkg/chat/application/domain"
	repository "go-chatline/internal/repository/port"
)

// CachedUserRepository serves FindByID from the cache and collapses concurrent
// misses for the same user into a single store query. Subscriptions are not
// cached; they are read once per offline delivery.
type CachedUserRepository struct {
	next  repository.UserRepository
	cache cacheport.Cache
	ttl   time.Duration
	group singleflight.Group
	log   zerolog.Logger
}

func NewCachedUserRepository(next repository.UserRepository, cache cacheport.Cache, ttl time.Duration, log zerolog.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		next:  next,
		cache: cache,
		ttl:   ttl,
		log:   log.With().Str("component", "user_cache").Logger(),
	}
}

var _ repository.UserRepository = (*CachedUserRepository)(nil)

func userKey(id string) string { return "user:" + id }

func (r *CachedUserRepository) FindByID(ctx context.Context, id string) (*chat.User, error) {
	if raw, err := r.cache.Get(ctx, userKey(id)); err == nil {
		var u chat.User
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			return &u, nil
		}
		r.log.Warn().Str("user_id", id).Msg("discarding undecodable cache entry")
	} else if !errors.Is(err, cacheport.ErrMiss) {
		r.log.Warn().Err(err).Str("user_id", id).Msg("cache read failed")
	}

	v, err, _ := r.group.Do(id, func() (interface{}, error) {
		u, err := r.next.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(u); err == nil {
			if err := r.cache.Set(ctx, userKey(id), string(raw), r.ttl); err != nil {
				r.log.Warn().Err(err).Str("user_id", id).Msg("cache write failed")
			}
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	u := *v.(*chat.User)
	return &u, nil
}

// ListUsersExcept always reads through to the store.
func (r *CachedUserRepository) ListUsersExcept(ctx context.Context, excludeID string) ([]chat.User, error) {
	return r.next.ListUsersExcept(ctx, excludeID)
}

func (r *CachedUserRepository) GetPushSubscription(ctx context.Context, userID string) (*chat.PushSubscription, error) {
	return r.next.GetPushSubscription(ctx, userID)
}

func (r *CachedUserRepository) SavePushSubscription(ctx context.Context, userID string, sub chat.PushSubscription) error {
	return r.next.SavePushSubscription(ctx, userID, sub)
}
