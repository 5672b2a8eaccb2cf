// Package starbasedb is the adapter for StarbaseDB, a lightweight hosted
// SQLite variant with a raw query HTTP endpoint.
package starbasedb

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

// Config contains StarbaseDB-specific connection options.
type Config struct {
	URL   string // instance URL
	Token string // admin authorization token
}

// FromMap creates a Config from a generic connection config map.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{}
	if u, ok := config["url"].(string); ok {
		cfg.URL = u
	} else {
		return nil, fmt.Errorf("url is required")
	}
	if token, ok := config["token"].(string); ok {
		cfg.Token = token
	} else {
		return nil, fmt.Errorf("token is required")
	}
	return cfg, nil
}

// Adapter executes statements through the raw query endpoint.
type Adapter struct {
	cfg        *Config
	httpClient *http.Client
}

// NewAdapter creates a StarbaseDB adapter.
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
	Params any    `json:"params,omitempty"`
}

type queryResponse struct {
	Result *struct {
		Columns []string `json:"columns"`
		Rows    [][]any  `json:"rows"`
		Meta    struct {
			RowsRead    int64 `json:"rows_read"`
			RowsWritten int64 `json:"rows_written"`
		} `json:"meta"`
	} `json:"result"`
	Error string `json:"error,omitempty"`
}

// Query runs one statement against the instance's raw endpoint.
func (a *Adapter) Query(ctx context.Context, sqlText string, params any) (*shape.RawResult, error) {
	body, err := json.Marshal(queryRequest{SQL: sqlText, Params: params})
	if err != nil {
		return nil, fmt.Errorf("encode starbasedb request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.URL+"/query/raw", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create starbasedb request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.Token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("starbasedb request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read starbasedb response: %w", err)
	}

	var decoded queryResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("decode starbasedb response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if decoded.Error != "" {
			return nil, fmt.Errorf("starbasedb execution failed: %s", decoded.Error)
		}
		return nil, fmt.Errorf("starbasedb execution failed: status %d", resp.StatusCode)
	}
	if decoded.Result == nil {
		return nil, fmt.Errorf("starbasedb response missing result")
	}

	return &shape.RawResult{
		Columns: decoded.Result.Columns,
		Rows:    decoded.Result.Rows,
		Meta: shape.Meta{
			RowsRead:    decoded.Result.Meta.RowsRead,
			RowsWritten: decoded.Result.Meta.RowsWritten,
		},
	}, nil
}

// Close is a no-op; the API is stateless.
func (a *Adapter) Close() error {
	return nil
}

// Ensure Adapter implements backend.Adapter at compile time.
var _ backend.Adapter = (*Adapter)(nil)
