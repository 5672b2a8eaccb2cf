// Package postgres is the direct driver adapter for PostgreSQL backends.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/querygate-inc/querygate-engine/pkg/backend"
	"github.com/querygate-inc/querygate-engine/pkg/shape"
)

// Adapter executes statements over a single pgx connection. The connection is
// opened per call by the dispatcher and closed after; pooling is not this
// layer's concern.
type Adapter struct {
	conn *pgx.Conn
}

// NewAdapter opens a connection to the configured database.
func NewAdapter(ctx context.Context, cfg *Config) (*Adapter, error) {
	conn, err := pgx.Connect(ctx, cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return &Adapter{conn: conn}, nil
}

// Query runs one statement and returns the native tabular result.
// Array params bind to $1..$n placeholders; object params bind as named
// arguments via pgx.
func (a *Adapter) Query(ctx context.Context, sqlText string, params any) (*shape.RawResult, error) {
	args, err := bindArgs(params)
	if err != nil {
		return nil, err
	}

	rows, err := a.conn.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	result := &shape.RawResult{
		Columns: make([]string, len(fieldDescs)),
		Rows:    [][]any{},
	}
	for i, fd := range fieldDescs {
		result.Columns[i] = string(fd.Name)
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	result.Meta.RowsRead = int64(len(result.Rows))
	result.Meta.RowsWritten = rows.CommandTag().RowsAffected()
	return result, nil
}

// bindArgs converts pipeline params into pgx arguments.
func bindArgs(params any) ([]any, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case []any:
		return p, nil
	case map[string]any:
		return []any{pgx.NamedArgs(p)}, nil
	default:
		return nil, fmt.Errorf("params must be an array or an object, got %T", params)
	}
}

// Close releases the connection.
func (a *Adapter) Close() error {
	return a.conn.Close(context.Background())
}

// Ensure Adapter implements backend.Adapter at compile time.
var _ backend.Adapter = (*Adapter)(nil)
