// Package turso is the adapter for Turso/libSQL, a replicated SQLite service
// reached over its HTTP pipeline API.
package turso

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/querygate-inc/querygate-engine/pkg/backend"
	"github.com/querygate-inc/querygate-engine/pkg/shape"
)

// Config contains Turso-specific connection options.
type Config struct {
	URL   string // database URL, e.g. https://mydb-org.turso.io
	Token string // auth token
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

// Adapter executes statements through the libSQL v2 pipeline endpoint.
type Adapter struct {
	cfg        *Config
	httpClient *http.Client
}

// NewAdapter creates a Turso adapter.
func NewAdapter(cfg *Config) *Adapter {
	return &Adapter{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// libSQL typed values. Arguments and cells are tagged unions.
type typedValue struct {
	Type  string `json:"type"`
	Value any    `json:"value,omitempty"`
}

type pipelineRequest struct {
	Requests []pipelineStep `json:"requests"`
}

type pipelineStep struct {
	Type string    `json:"type"`
	Stmt *stmtBody `json:"stmt,omitempty"`
}

type stmtBody struct {
	SQL       string       `json:"sql"`
	Args      []typedValue `json:"args,omitempty"`
	NamedArgs []namedArg   `json:"named_args,omitempty"`
}

type namedArg struct {
	Name  string     `json:"name"`
	Value typedValue `json:"value"`
}

type pipelineResponse struct {
	Results []struct {
		Type     string `json:"type"` // "ok" or "error"
		Response *struct {
			Result *struct {
				Cols []struct {
					Name string `json:"name"`
				} `json:"cols"`
				Rows         [][]typedValue `json:"rows"`
				AffectedRows int64          `json:"affected_row_count"`
			} `json:"result"`
		} `json:"response"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"results"`
}

// Query runs one statement through the pipeline API.
func (a *Adapter) Query(ctx context.Context, sqlText string, params any) (*shape.RawResult, error) {
	stmt := &stmtBody{SQL: sqlText}
	switch p := params.(type) {
	case nil:
	case []any:
		for _, v := range p {
			stmt.Args = append(stmt.Args, encodeValue(v))
		}
	case map[string]any:
		for name, v := range p {
			stmt.NamedArgs = append(stmt.NamedArgs, namedArg{Name: name, Value: encodeValue(v)})
		}
	default:
		return nil, fmt.Errorf("params must be an array or an object, got %T", params)
	}

	body, err := json.Marshal(pipelineRequest{
		Requests: []pipelineStep{
			{Type: "execute", Stmt: stmt},
			{Type: "close"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode turso request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.URL+"/v2/pipeline", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create turso request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.Token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("turso request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read turso response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("turso execution failed: status %d", resp.StatusCode)
	}

	var decoded pipelineResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("decode turso response: %w", err)
	}
	if len(decoded.Results) == 0 {
		return nil, fmt.Errorf("turso response missing results")
	}

	execResult := decoded.Results[0]
	if execResult.Type == "error" && execResult.Error != nil {
		return nil, fmt.Errorf("turso execution failed: %s", execResult.Error.Message)
	}
	if execResult.Response == nil || execResult.Response.Result == nil {
		return nil, fmt.Errorf("turso response missing statement result")
	}

	stmtResult := execResult.Response.Result
	raw := &shape.RawResult{
		Columns: make([]string, len(stmtResult.Cols)),
		Rows:    make([][]any, 0, len(stmtResult.Rows)),
	}
	for i, col := range stmtResult.Cols {
		raw.Columns[i] = col.Name
	}
	for _, row := range stmtResult.Rows {
		values := make([]any, len(row))
		for i, cell := range row {
			values[i] = decodeValue(cell)
		}
		raw.Rows = append(raw.Rows, values)
	}
	raw.Meta.RowsRead = int64(len(raw.Rows))
	raw.Meta.RowsWritten = stmtResult.AffectedRows
	return raw, nil
}

// encodeValue converts a Go value into a libSQL typed value.
func encodeValue(v any) typedValue {
	switch val := v.(type) {
	case nil:
		return typedValue{Type: "null"}
	case bool:
		if val {
			return typedValue{Type: "integer", Value: "1"}
		}
		return typedValue{Type: "integer", Value: "0"}
	case float64:
		if val == float64(int64(val)) {
			return typedValue{Type: "integer", Value: strconv.FormatInt(int64(val), 10)}
		}
		return typedValue{Type: "float", Value: val}
	case int:
		return typedValue{Type: "integer", Value: strconv.Itoa(val)}
	case int64:
		return typedValue{Type: "integer", Value: strconv.FormatInt(val, 10)}
	case string:
		return typedValue{Type: "text", Value: val}
	default:
		return typedValue{Type: "text", Value: fmt.Sprintf("%v", val)}
	}
}

// decodeValue converts a libSQL typed cell back into a plain Go value.
func decodeValue(cell typedValue) any {
	switch cell.Type {
	case "null":
		return nil
	case "integer":
		if s, ok := cell.Value.(string); ok {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n
			}
		}
		return cell.Value
	default:
		return cell.Value
	}
}

// Close is a no-op; each pipeline request closes its own stream.
func (a *Adapter) Close() error {
	return nil
}

// Ensure Adapter implements backend.Adapter at compile time.
var _ backend.Adapter = (*Adapter)(nil)
