package sql

import (
	"fmt"
)

// RewritePositionalParams replaces each `?` placeholder (in source order,
// outside string literals and quoted identifiers) with a named `:paramN`
// placeholder, N being the zero-based occurrence index. An array params value
// is converted to the matching {param0: v0, param1: v1, ...} mapping; object
// params pass through unchanged. Remote endpoints that accept only named
// parameters require this rewrite.
func RewritePositionalParams(sqlText string, params any) (string, any, error) {
	rewritten, count := rewritePlaceholders(sqlText)

	switch p := params.(type) {
	case nil:
		return rewritten, nil, nil
	case map[string]any:
		// Already named; the statement is expected to use named placeholders.
		return rewritten, p, nil
	case []any:
		if count != len(p) {
			return "", nil, fmt.Errorf("placeholder count %d does not match param count %d", count, len(p))
		}
		named := make(map[string]any, len(p))
		for i, v := range p {
			named[fmt.Sprintf("param%d", i)] = v
		}
		return rewritten, named, nil
	default:
		return "", nil, fmt.Errorf("params must be an array or an object, got %T", params)
	}
}

// rewritePlaceholders walks the statement and replaces `?` occurrences outside
// quoted regions, returning the rewritten SQL and the number of replacements.
func rewritePlaceholders(sqlText string) (string, int) {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	var out []rune
	state := stateNormal
	prevChar := rune(0)
	index := 0

	for _, char := range sqlText {
		switch state {
		case stateNormal:
			switch char {
			case '?':
				out = append(out, []rune(fmt.Sprintf(":param%d", index))...)
				index++
				prevChar = char
				continue
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			if char == '\'' && prevChar != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' && prevChar != '\\' {
				state = stateNormal
			}
		}
		out = append(out, char)
		prevChar = char
	}

	return string(out), index
}

// CollapseNewlines flattens a multi-line statement into a single line.
// Hosted execution endpoints reject raw newlines in the query field.
func CollapseNewlines(sqlText string) string {
	var out []rune
	for _, char := range sqlText {
		if char == '\n' || char == '\r' {
			out = append(out, ' ')
			continue
		}
		out = append(out, char)
	}
	return string(out)
}
