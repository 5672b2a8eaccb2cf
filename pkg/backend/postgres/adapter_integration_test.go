package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querygate-inc/querygate-engine/pkg/backend"
	"github.com/querygate-inc/querygate-engine/pkg/testhelpers"
)

func TestAdapter_QueryAgainstContainer(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	ctx := context.Background()

	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS adapter_smoke (
			id   INTEGER PRIMARY KEY,
			name TEXT NOT NULL
		)`)
	require.NoError(t, err)
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO adapter_smoke (id, name) VALUES (1, 'alice'), (2, 'bob')
		ON CONFLICT (id) DO NOTHING`)
	require.NoError(t, err)

	cfg, err := FromMap(db.ConnectionConfig())
	require.NoError(t, err)

	adapter, err := NewAdapter(ctx, cfg)
	require.NoError(t, err)
	defer adapter.Close()

	result, err := adapter.Query(ctx, "SELECT id, name FROM adapter_smoke ORDER BY id", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, result.Columns)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "alice", result.Rows[0][1])
	assert.Equal(t, int64(2), result.Meta.RowsRead)
}

func TestAdapter_PositionalParams(t *testing.T) {
	db := testhelpers.GetTestDB(t)
	ctx := context.Background()

	cfg, err := FromMap(db.ConnectionConfig())
	require.NoError(t, err)

	adapter, err := NewAdapter(ctx, cfg)
	require.NoError(t, err)
	defer adapter.Close()

	result, err := adapter.Query(ctx, "SELECT $1::int AS answer", []any{42})
	require.NoError(t, err)

	require.Len(t, result.Rows, 1)
	assert.EqualValues(t, 42, result.Rows[0][0])
}

func TestAdapter_RegisteredAsDialect(t *testing.T) {
	assert.True(t, backend.IsRegistered("postgres"))
}
