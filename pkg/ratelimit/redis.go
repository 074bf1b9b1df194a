package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/JaimeStill/intake/pkg/lifecycle"
)

// RedisStore keeps counters in Redis so every instance shares one allowance.
// The backing store loads its scripts on startup; until then every call
// returns ErrStoreNotReady.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger

	mu    sync.RWMutex
	store limiter.Store
}

// NewRedisStore creates a RedisStore over the given client.
func NewRedisStore(client *redis.Client, logger *slog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger.With("system", "ratelimit", "store", "redis"),
	}
}

func (s *RedisStore) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup("ratelimit", func() error {
		store, err := sredis.NewStoreWithOptions(s.client, limiter.StoreOptions{Prefix: keyPrefix})
		if err != nil {
			s.logger.Error("rate limit store init failed", "error", err)
			return fmt.Errorf("init redis rate limit store: %w", err)
		}

		s.mu.Lock()
		s.store = store
		s.mu.Unlock()

		s.logger.Info("rate limit counters held in redis")
		return nil
	})
	return nil
}

func (s *RedisStore) backend() (limiter.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, ErrStoreNotReady
	}
	return s.store, nil
}

func (s *RedisStore) Get(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	store, err := s.backend()
	if err != nil {
		return limiter.Context{}, err
	}
	return store.Get(ctx, key, rate)
}

func (s *RedisStore) Peek(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	store, err := s.backend()
	if err != nil {
		return limiter.Context{}, err
	}
	return store.Peek(ctx, key, rate)
}

func (s *RedisStore) Reset(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	store, err := s.backend()
	if err != nil {
		return limiter.Context{}, err
	}
	return store.Reset(ctx, key, rate)
}

func (s *RedisStore) Increment(ctx context.Context, key string, count int64, rate limiter.Rate) (limiter.Context, error) {
	store, err := s.backend()
	if err != nil {
		return limiter.Context{}, err
	}
	return store.Increment(ctx, key, count, rate)
}
