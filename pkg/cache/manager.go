package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/querygate-inc/querygate-engine/pkg/logging"
	"github.com/querygate-inc/querygate-engine/pkg/shape"
)

// Manager is the pipeline-facing cache surface. Store failures are absorbed
// here: a failed lookup reads as a miss and a failed write is a no-op, logged
// and never propagated to a caller.
type Manager struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewManager creates a manager over the given store with a default TTL.
func NewManager(store Store, ttl time.Duration, logger *zap.Logger) *Manager {
	return &Manager{store: store, ttl: ttl, logger: logger}
}

// Lookup returns a cached result for the post-security (sql, params) pair.
func (m *Manager) Lookup(ctx context.Context, sqlText string, params any) (shape.ObjectResult, bool) {
	key := Fingerprint(sqlText, params)
	result, found, err := m.store.Get(ctx, key)
	if err != nil {
		m.logger.Warn("Cache lookup failed, treating as miss",
			zap.String("query", logging.SanitizeQuery(sqlText)),
			zap.Error(err))
		return nil, false
	}
	return result, found
}

// StoreResult caches a transformed result after a successful execution.
func (m *Manager) StoreResult(ctx context.Context, sqlText string, params any, result shape.ObjectResult) {
	key := Fingerprint(sqlText, params)
	if err := m.store.Set(ctx, key, result, m.ttl); err != nil {
		m.logger.Warn("Cache write failed, skipping",
			zap.String("query", logging.SanitizeQuery(sqlText)),
			zap.Error(err))
	}
}

// TTL exposes the configured entry lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
