package sql

import (
	"regexp"
	"strings"
)

// tableRefPattern matches table references following FROM/JOIN/INTO/UPDATE and
// "TRUNCATE/DROP/ALTER TABLE" keywords. This is a lexical scan, not a parse:
// it is intentionally conservative and treats anything in those positions as a
// table reference. Subqueries contribute their inner FROM clauses naturally.
var tableRefPattern = regexp.MustCompile(
	`(?is)\b(?:from|join|into|update|(?:truncate|drop|alter)\s+table(?:\s+if\s+(?:not\s+)?exists)?)\s+` +
		"([`\"\\[]?[a-zA-Z_][a-zA-Z0-9_$]*[`\"\\]]?(?:\\.[`\"\\[]?[a-zA-Z_][a-zA-Z0-9_$]*[`\"\\]]?)?)")

// ExtractTableNames returns the lowercased, unquoted table references found in
// the statement, deduplicated in first-seen order. Derived tables open with a
// parenthesis and are skipped by the pattern.
func ExtractTableNames(sqlText string) []string {
	matches := tableRefPattern.FindAllStringSubmatch(sqlText, -1)
	seen := make(map[string]struct{}, len(matches))
	var tables []string
	for _, m := range matches {
		name := normalizeTableRef(m[1])
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		tables = append(tables, name)
	}
	return tables
}

// ReferencesTable reports whether the statement references the given table.
func ReferencesTable(sqlText, table string) bool {
	want := normalizeTableRef(table)
	for _, name := range ExtractTableNames(sqlText) {
		if name == want {
			return true
		}
		// Match the unqualified part of schema-qualified references.
		if idx := strings.LastIndex(name, "."); idx >= 0 && name[idx+1:] == want {
			return true
		}
	}
	return false
}

// normalizeTableRef lowercases a reference and strips identifier quoting.
func normalizeTableRef(ref string) string {
	ref = strings.ToLower(strings.TrimSpace(ref))
	parts := strings.Split(ref, ".")
	for i, part := range parts {
		parts[i] = strings.Trim(part, "`\"[]")
	}
	return strings.Join(parts, ".")
}
