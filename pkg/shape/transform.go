// Package shape converts between the tabular result representation returned by
// SQL backends and the row-object representation served to object-mode callers.
package shape

import "sort"

// Meta carries engine-reported row counters.
type Meta struct {
	RowsRead    int64 `json:"rows_read"`
	RowsWritten int64 `json:"rows_written"`
}

// RawResult is the engine-native tabular shape: ordered columns, ordered rows
// of ordered values, and row counters.
type RawResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Meta    Meta     `json:"meta"`
}

// ObjectResult is an ordered sequence of column-keyed row mappings.
type ObjectResult []map[string]any

// ToObjects zips each raw row with the column list to build row mappings.
func ToObjects(raw *RawResult) ObjectResult {
	if raw == nil {
		return ObjectResult{}
	}
	out := make(ObjectResult, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		m := make(map[string]any, len(raw.Columns))
		for i, col := range raw.Columns {
			if i < len(row) {
				m[col] = row[i]
			}
		}
		out = append(out, m)
	}
	return out
}

// ToRaw projects row mappings back into tabular form. Columns are the sorted
// key set of the first row; rows with keys missing from that set lose those
// values, which makes the round trip lossy for heterogeneous rows.
// RowsWritten is not tracked on this path and is always zero.
func ToRaw(rows ObjectResult) *RawResult {
	raw := &RawResult{
		Columns: []string{},
		Rows:    [][]any{},
		Meta:    Meta{RowsRead: int64(len(rows))},
	}
	if len(rows) == 0 {
		return raw
	}

	raw.Columns = make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		raw.Columns = append(raw.Columns, col)
	}
	sort.Strings(raw.Columns)

	raw.Rows = make([][]any, 0, len(rows))
	for _, row := range rows {
		values := make([]any, len(raw.Columns))
		for i, col := range raw.Columns {
			values[i] = row[col]
		}
		raw.Rows = append(raw.Rows, values)
	}
	return raw
}
