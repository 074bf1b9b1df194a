package ratelimit

import (
	"log/slog"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/JaimeStill/intake/pkg/lifecycle"
)

// MemoryStore keeps counters in process memory. Expired windows are
// removed every cleanup interval so the map never grows without bound.
type MemoryStore struct {
	limiter.Store
	interval time.Duration
	logger   *slog.Logger
}

// NewMemoryStore creates a MemoryStore cleaned up every interval.
func NewMemoryStore(interval time.Duration, logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		Store: memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          keyPrefix,
			CleanUpInterval: interval,
		}),
		interval: interval,
		logger:   logger.With("system", "ratelimit", "store", "memory"),
	}
}

func (s *MemoryStore) Start(_ *lifecycle.Coordinator) error {
	s.logger.Info("rate limit counters held in memory", "cleanup_interval", s.interval)
	return nil
}
