package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMap(t *testing.T) {
	cfg, err := FromMap(map[string]any{"database": ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Database)

	_, err = FromMap(map[string]any{})
	assert.Error(t, err)
}

func TestAdapter_Query(t *testing.T) {
	ctx := context.Background()
	adapter, err := NewAdapter(ctx, &Config{Database: ":memory:"})
	require.NoError(t, err)
	defer adapter.Close()

	_, err = adapter.db.ExecContext(ctx, `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
	_, err = adapter.db.ExecContext(ctx, `INSERT INTO users (id, name) VALUES (1, 'alice'), (2, 'bob')`)
	require.NoError(t, err)

	result, err := adapter.Query(ctx, "SELECT id, name FROM users WHERE id = ?", []any{1})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, result.Columns)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "alice", result.Rows[0][1])
	assert.Equal(t, int64(1), result.Meta.RowsRead)
}

func TestAdapter_QueryNoRows(t *testing.T) {
	ctx := context.Background()
	adapter, err := NewAdapter(ctx, &Config{Database: ":memory:"})
	require.NoError(t, err)
	defer adapter.Close()

	_, err = adapter.db.ExecContext(ctx, `CREATE TABLE empty_table (id INTEGER)`)
	require.NoError(t, err)

	result, err := adapter.Query(ctx, "SELECT id FROM empty_table", nil)
	require.NoError(t, err)

	assert.Empty(t, result.Rows)
	assert.Equal(t, int64(0), result.Meta.RowsRead)
}
