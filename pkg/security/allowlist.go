package security

import (
	"fmt"
	"strings"

	"github.com/querygate-inc/querygate-engine/pkg/apperrors"
	sqlutil "github.com/querygate-inc/querygate-engine/pkg/sql"
)

// checkAllowlist rejects statements that reference tables outside the
// configured set, and parameter values that carry SQL injection payloads.
func (e *Enforcer) checkAllowlist(sqlText string, params any) error {
	allowed := make(map[string]struct{}, len(e.cfg.Security.AllowedTables))
	for _, table := range e.cfg.Security.AllowedTables {
		allowed[strings.ToLower(table)] = struct{}{}
	}

	for _, table := range sqlutil.ExtractTableNames(sqlText) {
		name := table
		// Schema-qualified references match on their unqualified part too.
		if idx := strings.LastIndex(table, "."); idx >= 0 {
			name = table[idx+1:]
		}
		if _, ok := allowed[table]; ok {
			continue
		}
		if _, ok := allowed[name]; ok {
			continue
		}
		return fmt.Errorf("%w: table %q is not allowed", apperrors.ErrSecurityRejected, table)
	}

	if findings := sqlutil.ScreenParams(params); len(findings) > 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrSecurityRejected, findings[0].String())
	}

	return nil
}
