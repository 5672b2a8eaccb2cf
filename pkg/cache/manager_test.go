package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/querygate-inc/querygate-engine/pkg/shape"
)

// failingStore errors on every operation to exercise error absorption.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (shape.ObjectResult, bool, error) {
	return nil, false, errors.New("store down")
}
func (failingStore) Set(context.Context, string, shape.ObjectResult, time.Duration) error {
	return errors.New("store down")
}
func (failingStore) Sweep(context.Context) error { return errors.New("store down") }
func (failingStore) Close() error                { return nil }

func TestManager_LookupAfterStore(t *testing.T) {
	ctx := context.Background()
	manager := NewManager(NewMemoryStore(), time.Minute, zap.NewNop())
	result := shape.ObjectResult{{"id": 1}}

	manager.StoreResult(ctx, "SELECT * FROM users", []any{1}, result)

	got, hit := manager.Lookup(ctx, "SELECT * FROM users", []any{1})
	require.True(t, hit)
	assert.Equal(t, result, got)
}

func TestManager_MissOnDifferentParams(t *testing.T) {
	ctx := context.Background()
	manager := NewManager(NewMemoryStore(), time.Minute, zap.NewNop())

	manager.StoreResult(ctx, "SELECT * FROM users WHERE id = ?", []any{1}, shape.ObjectResult{})

	_, hit := manager.Lookup(ctx, "SELECT * FROM users WHERE id = ?", []any{2})
	assert.False(t, hit)
}

func TestManager_StoreErrorsAbsorbed(t *testing.T) {
	ctx := context.Background()
	manager := NewManager(failingStore{}, time.Minute, zap.NewNop())

	// Neither operation may panic or surface an error to the caller.
	manager.StoreResult(ctx, "SELECT 1", nil, shape.ObjectResult{})

	_, hit := manager.Lookup(ctx, "SELECT 1", nil)
	assert.False(t, hit)
}

func TestSweeper_StartStop(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "stale", shape.ObjectResult{}, -time.Second))

	sweeper := NewSweeper(store, 10*time.Millisecond, zap.NewNop())
	sweeper.Start()

	assert.Eventually(t, func() bool { return store.Len() == 0 },
		time.Second, 5*time.Millisecond)

	sweeper.Stop()
}

func TestSweeper_StopWithoutStart(t *testing.T) {
	sweeper := NewSweeper(NewMemoryStore(), time.Minute, zap.NewNop())
	sweeper.Stop()
}
