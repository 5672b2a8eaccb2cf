// Package internalengine is the RPC client for the co-located embedded
// database. The contract is deliberately narrow: executeQuery(sql, params,
// isRaw) returning the engine-native tabular shape, or row objects when
// isRaw is false. The engine itself is an external collaborator; this client
// is the gateway's only view of it.
package internalengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/querygate-inc/querygate-engine/pkg/backend"
	"github.com/querygate-inc/querygate-engine/pkg/shape"
)

// Client talks to the internal engine over its HTTP RPC endpoint.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates an internal engine client. token may be empty when the
// engine runs without authentication (local development).
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type executeRequest struct {
	SQL    string `json:"sql"`
	Params any    `json:"params,omitempty"`
	Raw    bool   `json:"raw"`
}

type executeResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error,omitempty"`
}

// ExecuteQuery runs one statement on the engine. The engine honors the raw
// flag itself and returns the matching result shape.
func (c *Client) ExecuteQuery(ctx context.Context, sqlText string, params any, isRaw bool) (*backend.Result, error) {
	body, err := json.Marshal(executeRequest{SQL: sqlText, Params: params, Raw: isRaw})
	if err != nil {
		return nil, fmt.Errorf("encode engine request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create engine request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read engine response: %w", err)
	}

	var decoded executeResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("decode engine response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if decoded.Error != "" {
			return nil, fmt.Errorf("engine error: %s", decoded.Error)
		}
		return nil, fmt.Errorf("engine error: status %d", resp.StatusCode)
	}

	if isRaw {
		var raw shape.RawResult
		if err := json.Unmarshal(decoded.Result, &raw); err != nil {
			return nil, fmt.Errorf("decode raw result: %w", err)
		}
		return &backend.Result{Raw: &raw}, nil
	}

	var objects shape.ObjectResult
	if err := json.Unmarshal(decoded.Result, &objects); err != nil {
		return nil, fmt.Errorf("decode object result: %w", err)
	}
	return &backend.Result{Objects: objects}, nil
}

// Ensure Client implements backend.RPCExecutor at compile time.
var _ backend.RPCExecutor = (*Client)(nil)
