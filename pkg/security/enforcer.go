// Package security enforces tenant policy on statements before they reach
// the cache or a backend: an allowlist check on the original statement,
// then a role-aware row-level security rewrite of the approved statement.
package security

import (
	"context"

	"go.uber.org/zap"

	"github.com/querygate-inc/querygate-engine/pkg/config"
	"github.com/querygate-inc/querygate-engine/pkg/logging"
)

// Decision is the enforcer's output: the statement to execute and whether the
// rewrite stage changed it. A modified statement must not be cached for this
// pass, since row-level filtering is role-dependent and the cache key is
// role-agnostic.
type Decision struct {
	SQL      string
	Modified bool
}

// Enforcer applies the two policy stages in fixed order. Each stage is a
// no-op when its feature toggle is off.
type Enforcer struct {
	cfg    *config.Config
	logger *zap.Logger
}

// New creates an enforcer over the gateway configuration.
func New(cfg *config.Config, logger *zap.Logger) *Enforcer {
	return &Enforcer{cfg: cfg, logger: logger}
}

// Enforce validates and rewrites one statement. The allowlist evaluates the
// original statement; RLS evaluates the allowlist-approved statement.
func (e *Enforcer) Enforce(ctx context.Context, sqlText string, params any, dialect string) (Decision, error) {
	if e.cfg.Features.Allowlist {
		if err := e.checkAllowlist(sqlText, params); err != nil {
			e.logger.Warn("Statement rejected",
				zap.String("query", logging.SanitizeQuery(sqlText)),
				zap.Error(err))
			return Decision{}, err
		}
	}

	if e.cfg.Features.RLS {
		rewritten, modified := e.applyRowPolicies(ctx, sqlText, dialect)
		return Decision{SQL: rewritten, Modified: modified}, nil
	}

	return Decision{SQL: sqlText}, nil
}
