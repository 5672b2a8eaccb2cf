package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMap(t *testing.T) {
	cfg, err := FromMap(map[string]any{
		"host":     "db.internal",
		"port":     float64(3307),
		"user":     "app",
		"password": "secret",
		"database": "prod",
	})

	require.NoError(t, err)
	assert.Equal(t, 3307, cfg.Port)
	assert.Equal(t, "app:secret@tcp(db.internal:3307)/prod?parseTime=true", cfg.DSN())
}

func TestFromMap_Defaults(t *testing.T) {
	cfg, err := FromMap(map[string]any{
		"host":     "db.internal",
		"user":     "app",
		"database": "prod",
	})

	require.NoError(t, err)
	assert.Equal(t, DefaultPort(), cfg.Port)
}

func TestFromMap_RequiredFields(t *testing.T) {
	_, err := FromMap(map[string]any{"user": "app", "database": "prod"})
	assert.Error(t, err)

	_, err = FromMap(map[string]any{"host": "h", "database": "prod"})
	assert.Error(t, err)

	_, err = FromMap(map[string]any{"host": "h", "user": "app"})
	assert.Error(t, err)
}
