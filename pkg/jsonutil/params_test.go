package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeParams(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    any
		wantErr bool
	}{
		{name: "absent", raw: "", want: nil},
		{name: "null", raw: "null", want: nil},
		{name: "array", raw: `[1, "a"]`, want: []any{float64(1), "a"}},
		{name: "object", raw: `{"id": 7}`, want: map[string]any{"id": float64(7)}},
		{name: "string", raw: `"nope"`, wantErr: true},
		{name: "number", raw: `42`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeParams(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidParamsShape(t *testing.T) {
	assert.True(t, ValidParamsShape(nil))
	assert.True(t, ValidParamsShape([]any{1}))
	assert.True(t, ValidParamsShape(map[string]any{"a": 1}))
	assert.False(t, ValidParamsShape("string"))
	assert.False(t, ValidParamsShape(42))
}
