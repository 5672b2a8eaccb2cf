package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScreenParams_CleanValues(t *testing.T) {
	assert.Empty(t, ScreenParams([]any{"alice", 42, true, nil}))
	assert.Empty(t, ScreenParams(map[string]any{"name": "bob", "age": 30}))
	assert.Empty(t, ScreenParams(nil))
}

func TestScreenParams_InjectionPayload(t *testing.T) {
	findings := ScreenParams([]any{"x' OR '1'='1"})

	require.Len(t, findings, 1)
	assert.Equal(t, "0", findings[0].ParamName)
	assert.NotEmpty(t, findings[0].Fingerprint)
}

func TestScreenParams_ObjectPayloadNamesKey(t *testing.T) {
	findings := ScreenParams(map[string]any{
		"safe":  "hello",
		"email": "a'; DROP TABLE users--",
	})

	require.Len(t, findings, 1)
	assert.Equal(t, "email", findings[0].ParamName)
}

func TestScreenParams_NonStringValuesSkipped(t *testing.T) {
	assert.Empty(t, ScreenParams([]any{1, 2.5, false, []any{"' OR 1=1"}}))
}
