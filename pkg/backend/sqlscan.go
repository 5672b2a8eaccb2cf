package backend

import (
	"database/sql"
	"fmt"

	"github.com/querygate-inc/querygate-engine/pkg/shape"
)

// CollectRows drains a database/sql result set into the tabular result shape.
// []byte values from text-typed columns are converted to strings so results
// serialize as JSON text rather than base64.
func CollectRows(rows *sql.Rows) (*shape.RawResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	result := &shape.RawResult{
		Columns: columns,
		Rows:    [][]any{},
	}

	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i, val := range values {
			if b, ok := val.([]byte); ok && isTextType(columnTypes[i].DatabaseTypeName()) {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	result.Meta.RowsRead = int64(len(result.Rows))
	return result, nil
}

// isTextType reports whether a database type name holds character data.
func isTextType(typeName string) bool {
	switch typeName {
	case "CHAR", "VARCHAR", "NCHAR", "NVARCHAR", "TEXT", "NTEXT",
		"LONGTEXT", "MEDIUMTEXT", "TINYTEXT", "JSON", "ENUM", "SET",
		"DECIMAL", "NUMERIC":
		return true
	}
	return false
}

// BindParams converts pipeline params into driver arguments. Arrays bind
// positionally; object params bind as named arguments for drivers that
// support them.
func BindParams(params any) ([]any, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case []any:
		return p, nil
	case map[string]any:
		args := make([]any, 0, len(p))
		for name, value := range p {
			args = append(args, sql.Named(name, value))
		}
		return args, nil
	default:
		return nil, fmt.Errorf("params must be an array or an object, got %T", params)
	}
}
