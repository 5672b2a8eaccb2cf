// Package hostedproxy executes statements via a remote execution endpoint
// instead of a direct driver connection. The endpoint accepts only named
// parameters, so positional placeholders are rewritten before transmission.
package hostedproxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/querygate-inc/querygate-engine/pkg/retry"
	"github.com/querygate-inc/querygate-engine/pkg/shape"
	sqlutil "github.com/querygate-inc/querygate-engine/pkg/sql"
)

// Client calls the hosted execution endpoint with a bearer-style credential.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	retryCfg   *retry.Config
	logger     *zap.Logger
}

// NewClient creates a hosted-proxy client.
func NewClient(endpoint, apiKey string, logger *zap.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retryCfg: retry.DefaultConfig(),
		logger:   logger,
	}
}

type queryRequest struct {
	Query  string `json:"query"`
	Params any    `json:"params,omitempty"`
}

// envelope is the versioned response contract of the hosted endpoint.
// The nested shape is validated explicitly rather than trusted at runtime.
type envelope struct {
	Response *struct {
		Results *struct {
			Items []map[string]any `json:"items"`
		} `json:"results"`
	} `json:"response"`
	Error string `json:"error,omitempty"`
}

// Query forwards one statement to the remote endpoint. Each `?` placeholder
// is rewritten to `:paramN` in source order, array params become the matching
// {param0: v0, ...} mapping, and newlines are collapsed to spaces.
func (c *Client) Query(ctx context.Context, sqlText string, params any) (shape.ObjectResult, error) {
	rewritten, namedParams, err := sqlutil.RewritePositionalParams(sqlText, params)
	if err != nil {
		return nil, fmt.Errorf("rewrite params for hosted execution: %w", err)
	}
	rewritten = sqlutil.CollapseNewlines(rewritten)

	body, err := json.Marshal(queryRequest{Query: rewritten, Params: namedParams})
	if err != nil {
		return nil, fmt.Errorf("encode hosted request: %w", err)
	}

	var items []map[string]any
	err = retry.Do(ctx, c.retryCfg, func() error {
		var callErr error
		items, callErr = c.post(ctx, body)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return shape.ObjectResult(items), nil
}

func (c *Client) post(ctx context.Context, body []byte) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create hosted request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hosted request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read hosted response: %w", err)
	}

	var decoded envelope
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("decode hosted response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if decoded.Error != "" {
			return nil, fmt.Errorf("hosted execution failed: %s", decoded.Error)
		}
		return nil, fmt.Errorf("hosted execution failed: status %d", resp.StatusCode)
	}
	if decoded.Response == nil || decoded.Response.Results == nil {
		return nil, fmt.Errorf("hosted response missing response.results.items")
	}
	return decoded.Response.Results.Items, nil
}
