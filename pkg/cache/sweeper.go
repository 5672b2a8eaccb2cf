package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically removes expired entries from a store. It is owned by
// the gateway's lifecycle: Start launches one goroutine, Stop cancels it and
// waits for the in-flight pass to finish, so shutdown is deterministic.
// Sweep errors are logged and swallowed; they never reach a request.
type Sweeper struct {
	store    Store
	interval time.Duration
	logger   *zap.Logger

	cancel context.CancelFunc
	done   sync.WaitGroup
}

// NewSweeper creates a sweeper over the given store.
func NewSweeper(store Store, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{store: store, interval: interval, logger: logger}
}

// Start launches the background sweep loop. Calling Start twice is a bug.
func (s *Sweeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done.Add(1)

	go func() {
		defer s.done.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.store.Sweep(ctx); err != nil {
					s.logger.Warn("Cache sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.done.Wait()
}
