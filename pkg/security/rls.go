package security

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/querygate-inc/querygate-engine/pkg/auth"
	"github.com/querygate-inc/querygate-engine/pkg/config"
	sqlutil "github.com/querygate-inc/querygate-engine/pkg/sql"
)

// applyRowPolicies injects row-visibility predicates for non-admin callers.
// The rewrite is lexical: the predicate is attached to the statement's
// top-level WHERE clause (or one is appended). Predicate values come from
// configuration or verified token claims, never from request parameters.
func (e *Enforcer) applyRowPolicies(ctx context.Context, sqlText, dialect string) (string, bool) {
	role := auth.RoleFromContext(ctx, e.cfg.Role)
	if role == config.RoleAdmin {
		return sqlText, false
	}
	if !statementSupportsPredicates(sqlText) {
		return sqlText, false
	}

	var predicates []string
	for _, policy := range e.cfg.Security.Policies {
		if !sqlutil.ReferencesTable(sqlText, policy.Table) {
			continue
		}
		value, ok := e.policyValue(ctx, policy)
		if !ok {
			e.logger.Warn("Skipping row policy with unresolvable value",
				zap.String("table", policy.Table),
				zap.String("claim", policy.Claim))
			continue
		}
		predicates = append(predicates,
			sqlutil.QuoteIdentifier(dialect, policy.Column)+" = "+sqlutil.QuoteLiteral(value))
	}
	if len(predicates) == 0 {
		return sqlText, false
	}

	combined := strings.Join(predicates, " AND ")
	if pos, length, found := findTopLevelWhere(sqlText); found {
		// The original condition is parenthesized so a top-level OR cannot
		// widen visibility past the injected predicates.
		condStart := pos + length
		condEnd := findConditionEnd(sqlText, condStart)
		condition := strings.TrimSpace(sqlText[condStart:condEnd])
		rewritten := sqlText[:condStart] + " " + combined + " AND (" + condition + ")"
		if condEnd < len(sqlText) {
			rewritten += " " + strings.TrimSpace(sqlText[condEnd:])
		}
		return rewritten, true
	}
	return sqlText + " WHERE " + combined, true
}

// policyValue resolves the predicate value for one policy: a claim from the
// caller's token when Claim is set, otherwise the configured literal.
func (e *Enforcer) policyValue(ctx context.Context, policy config.RLSPolicy) (string, bool) {
	if policy.Claim != "" {
		return auth.ClaimValue(ctx, policy.Claim)
	}
	if policy.Value != "" {
		return policy.Value, true
	}
	return "", false
}

// statementSupportsPredicates limits injection to verbs with a WHERE clause.
func statementSupportsPredicates(sqlText string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(sqlText))
	return strings.HasPrefix(trimmed, "select") ||
		strings.HasPrefix(trimmed, "update") ||
		strings.HasPrefix(trimmed, "delete") ||
		strings.HasPrefix(trimmed, "with")
}

// findTopLevelWhere locates the first WHERE keyword outside string literals,
// quoted identifiers, and parentheses. Returns its byte position and length.
func findTopLevelWhere(sqlText string) (pos, length int, found bool) {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	depth := 0
	prevChar := rune(0)
	lower := strings.ToLower(sqlText)

	for i := 0; i < len(lower); i++ {
		char := rune(lower[i])
		switch state {
		case stateNormal:
			switch char {
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			case '(':
				depth++
			case ')':
				depth--
			case 'w':
				if depth == 0 && isKeywordAt(lower, i, "where") {
					return i, len("where"), true
				}
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
		prevChar = char
	}
	return 0, 0, false
}

// conditionTerminators are the clauses that may follow a WHERE condition at
// the top level of a statement.
var conditionTerminators = []string{"group", "having", "order", "limit", "offset", "union", "returning"}

// findConditionEnd scans from start for the first top-level keyword that ends
// the WHERE condition. Returns len(sqlText) when the condition runs to the end
// of the statement.
func findConditionEnd(sqlText string, start int) int {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	depth := 0
	prevChar := rune(0)
	lower := strings.ToLower(sqlText)

	for i := start; i < len(lower); i++ {
		char := rune(lower[i])
		switch state {
		case stateNormal:
			switch char {
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			case '(':
				depth++
			case ')':
				depth--
			default:
				if depth == 0 {
					for _, keyword := range conditionTerminators {
						if isKeywordAt(lower, i, keyword) {
							return i
						}
					}
				}
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
		prevChar = char
	}
	return len(sqlText)
}

// isKeywordAt reports whether word appears at position i bounded by
// non-identifier characters on both sides.
func isKeywordAt(lower string, i int, word string) bool {
	if !strings.HasPrefix(lower[i:], word) {
		return false
	}
	if i > 0 && isIdentChar(lower[i-1]) {
		return false
	}
	end := i + len(word)
	if end < len(lower) && isIdentChar(lower[end]) {
		return false
	}
	return true
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
