// Package jsonutil decodes loosely-shaped JSON fields from inbound requests.
package jsonutil

import (
	"encoding/json"
	"fmt"
)

// DecodeParams interprets a raw JSON params field. Valid shapes are absent
// (nil), a JSON array, or a JSON object; anything else is an error. The
// decoded value is []any, map[string]any, or nil, matching what callers of
// the query pipeline are allowed to send.
func DecodeParams(raw json.RawMessage) (any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var arr []any
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, nil
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj, nil
	}

	return nil, fmt.Errorf("params must be an array or an object")
}

// ValidParamsShape reports whether an already-decoded params value has an
// acceptable shape (nil, array, or plain mapping).
func ValidParamsShape(params any) bool {
	switch params.(type) {
	case nil, []any, map[string]any:
		return true
	default:
		return false
	}
}
