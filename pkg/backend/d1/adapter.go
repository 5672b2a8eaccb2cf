// Package d1 is the adapter for Cloudflare D1, an API-backed SQLite engine.
package d1

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

const apiBase = "https://api.cloudflare.com/client/v4"

// Config contains D1-specific connection options.
type Config struct {
	AccountID string
	Database  string // database identifier
	Token     string // API token
}

// FromMap creates a Config from a generic connection config map.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{}
	if accountID, ok := config["account_id"].(string); ok {
		cfg.AccountID = accountID
	} else {
		return nil, fmt.Errorf("account_id is required")
	}
	if database, ok := config["database"].(string); ok {
		cfg.Database = database
	} else {
		return nil, fmt.Errorf("database is required")
	}
	if token, ok := config["token"].(string); ok {
		cfg.Token = token
	} else {
		return nil, fmt.Errorf("token is required")
	}
	return cfg, nil
}

// Adapter executes statements through the D1 HTTP API.
type Adapter struct {
	cfg        *Config
	httpClient *http.Client
}

// NewAdapter creates a D1 adapter. The API is stateless; no connection is
// established up front.
func NewAdapter(cfg *Config) *Adapter {
	return &Adapter{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type queryRequest struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params,omitempty"`
}

type queryResponse struct {
	Success bool `json:"success"`
	Errors  []struct {
		Message string `json:"message"`
	} `json:"errors"`
	Result []struct {
		Results []map[string]any `json:"results"`
		Meta    struct {
			RowsRead    int64 `json:"rows_read"`
			RowsWritten int64 `json:"rows_written"`
		} `json:"meta"`
	} `json:"result"`
}

// Query runs one statement. D1 accepts positional `?` params only; object
// params are rejected before the call.
func (a *Adapter) Query(ctx context.Context, sqlText string, params any) (*shape.RawResult, error) {
	reqBody := queryRequest{SQL: sqlText}
	switch p := params.(type) {
	case nil:
	case []any:
		reqBody.Params = p
	default:
		return nil, fmt.Errorf("d1 accepts positional params only, got %T", params)
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode d1 request: %w", err)
	}

	url := fmt.Sprintf("%s/accounts/%s/d1/database/%s/query", apiBase, a.cfg.AccountID, a.cfg.Database)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create d1 request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.Token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("d1 request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read d1 response: %w", err)
	}

	var decoded queryResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("decode d1 response: %w", err)
	}
	if !decoded.Success || resp.StatusCode != http.StatusOK {
		if len(decoded.Errors) > 0 {
			return nil, fmt.Errorf("d1 execution failed: %s", decoded.Errors[0].Message)
		}
		return nil, fmt.Errorf("d1 execution failed: status %d", resp.StatusCode)
	}
	if len(decoded.Result) == 0 {
		return nil, fmt.Errorf("d1 response missing result")
	}

	// D1 returns object rows; project them into the tabular shape.
	raw := shape.ToRaw(shape.ObjectResult(decoded.Result[0].Results))
	raw.Meta.RowsRead = decoded.Result[0].Meta.RowsRead
	raw.Meta.RowsWritten = decoded.Result[0].Meta.RowsWritten
	return raw, nil
}

// Close is a no-op; the API is stateless.
func (a *Adapter) Close() error {
	return nil
}

// Ensure Adapter implements backend.Adapter at compile time.
var _ backend.Adapter = (*Adapter)(nil)
