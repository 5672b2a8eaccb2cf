package turso

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want typedValue
	}{
		{"nil", nil, typedValue{Type: "null"}},
		{"bool true", true, typedValue{Type: "integer", Value: "1"}},
		{"int", 42, typedValue{Type: "integer", Value: "42"}},
		{"whole float", float64(7), typedValue{Type: "integer", Value: "7"}},
		{"fractional float", 2.5, typedValue{Type: "float", Value: 2.5}},
		{"string", "hello", typedValue{Type: "text", Value: "hello"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, encodeValue(tt.in))
		})
	}
}

func TestDecodeValue(t *testing.T) {
	assert.Nil(t, decodeValue(typedValue{Type: "null"}))
	assert.Equal(t, int64(42), decodeValue(typedValue{Type: "integer", Value: "42"}))
	assert.Equal(t, "hi", decodeValue(typedValue{Type: "text", Value: "hi"}))
	assert.Equal(t, 2.5, decodeValue(typedValue{Type: "float", Value: 2.5}))
}

func TestQuery_Pipeline(t *testing.T) {
	var gotReq pipelineRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/pipeline", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{
					"type": "ok",
					"response": map[string]any{
						"result": map[string]any{
							"cols": []map[string]any{{"name": "id"}, {"name": "name"}},
							"rows": [][]map[string]any{
								{{"type": "integer", "value": "1"}, {"type": "text", "value": "alice"}},
							},
							"affected_row_count": 0,
						},
					},
				},
			},
		})
	}))
	defer server.Close()

	adapter := NewAdapter(&Config{URL: server.URL, Token: "tok"})

	result, err := adapter.Query(t.Context(), "SELECT id, name FROM users WHERE id = ?", []any{1})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, result.Columns)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, int64(1), result.Rows[0][0])
	assert.Equal(t, "alice", result.Rows[0][1])

	// The pipeline carries an execute step followed by a close step.
	require.Len(t, gotReq.Requests, 2)
	assert.Equal(t, "execute", gotReq.Requests[0].Type)
	assert.Equal(t, "close", gotReq.Requests[1].Type)
	require.Len(t, gotReq.Requests[0].Stmt.Args, 1)
	assert.Equal(t, "integer", gotReq.Requests[0].Stmt.Args[0].Type)
}

func TestQuery_ErrorResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{
					"type":  "error",
					"error": map[string]any{"message": "no such table: ghosts"},
				},
			},
		})
	}))
	defer server.Close()

	adapter := NewAdapter(&Config{URL: server.URL, Token: "tok"})

	_, err := adapter.Query(t.Context(), "SELECT * FROM ghosts", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such table")
}

func TestFromMap_RequiredFields(t *testing.T) {
	_, err := FromMap(map[string]any{"token": "t"})
	assert.Error(t, err)

	_, err = FromMap(map[string]any{"url": "https://db.turso.io"})
	assert.Error(t, err)
}
