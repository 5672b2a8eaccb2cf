package hostedproxy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/querygate-inc/querygate-engine/pkg/shape"
)

func okPayload(items []map[string]any) map[string]any {
	return map[string]any{
		"response": map[string]any{
			"results": map[string]any{"items": items},
		},
	}
}

func TestQuery_RewritesAndForwards(t *testing.T) {
	var gotReq queryRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(okPayload([]map[string]any{{"id": float64(1)}}))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", zap.NewNop())

	result, err := client.Query(t.Context(),
		"SELECT *\nFROM users\nWHERE id = ? AND status = ?",
		[]any{42, "active"})

	require.NoError(t, err)
	assert.Equal(t, shape.ObjectResult{{"id": float64(1)}}, result)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "SELECT * FROM users WHERE id = :param0 AND status = :param1", gotReq.Query)
	assert.Equal(t, map[string]any{"param0": float64(42), "param1": "active"}, gotReq.Params)
}

func TestQuery_ObjectParamsPassThrough(t *testing.T) {
	var gotReq queryRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(okPayload(nil))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", zap.NewNop())

	_, err := client.Query(t.Context(),
		"SELECT * FROM users WHERE id = :id",
		map[string]any{"id": 7})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": float64(7)}, gotReq.Params)
}

func TestQuery_RemoteErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "syntax error near FROM"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", zap.NewNop())
	client.retryCfg.MaxRetries = 0

	_, err := client.Query(t.Context(), "SELECT FROM", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "syntax error")
}

func TestQuery_MalformedEnvelopeRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"response": map[string]any{}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", zap.NewNop())
	client.retryCfg.MaxRetries = 0

	_, err := client.Query(t.Context(), "SELECT 1", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "response.results.items")
}

func TestQuery_ParamMismatchFailsBeforeTransmission(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", zap.NewNop())

	_, err := client.Query(t.Context(), "SELECT * FROM users WHERE id = ?", []any{1, 2})

	require.Error(t, err)
	assert.False(t, called)
}
