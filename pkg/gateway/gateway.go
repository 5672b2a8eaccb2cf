// Package gateway composes validation, security enforcement, the result
// cache, and backend dispatch into the query execution pipeline. Every
// statement the service executes, whether it arrives as raw SQL or is
// generated by the REST layer, flows through here.
package gateway

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/querygate-inc/querygate-engine/pkg/apperrors"
	"github.com/querygate-inc/querygate-engine/pkg/backend"
	"github.com/querygate-inc/querygate-engine/pkg/cache"
	"github.com/querygate-inc/querygate-engine/pkg/jsonutil"
	"github.com/querygate-inc/querygate-engine/pkg/security"
	sqlutil "github.com/querygate-inc/querygate-engine/pkg/sql"
)

// QueryDescriptor is one statement plus its optional parameters.
type QueryDescriptor struct {
	SQL    string `json:"sql"`
	Params any    `json:"params,omitempty"`
}

// Gateway drives the pipeline: validate, enforce policy, consult the cache,
// dispatch, transform, refresh the cache.
type Gateway struct {
	ds         *backend.DataSource
	enforcer   *security.Enforcer
	cache      *cache.Manager
	dispatcher *backend.Dispatcher
	logger     *zap.Logger
}

// New wires the pipeline stages together.
func New(ds *backend.DataSource, enforcer *security.Enforcer, cacheMgr *cache.Manager, dispatcher *backend.Dispatcher, logger *zap.Logger) *Gateway {
	return &Gateway{
		ds:         ds,
		enforcer:   enforcer,
		cache:      cacheMgr,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// DataSource exposes the gateway's datasource for collaborators that need to
// know the active source kind (the REST layer's internal-only guard).
func (g *Gateway) DataSource() *backend.DataSource {
	return g.ds
}

// ValidateDescriptor checks one descriptor's shape: sql must be non-empty
// after trimming and params, if present, must be an array or a plain mapping.
func ValidateDescriptor(q QueryDescriptor) error {
	if result := sqlutil.ValidateAndNormalize(q.SQL); result.Error != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, result.Error)
	}
	if !jsonutil.ValidParamsShape(q.Params) {
		return fmt.Errorf("%w: params must be an array or an object", apperrors.ErrValidation)
	}
	return nil
}

// Query runs a single statement through the full pipeline.
func (g *Gateway) Query(ctx context.Context, q QueryDescriptor, isRaw bool) (*backend.Result, error) {
	if err := ValidateDescriptor(q); err != nil {
		return nil, err
	}
	return g.execute(ctx, q, isRaw)
}

// Batch runs an ordered sequence of statements strictly sequentially, each as
// an independent full pass through the pipeline. The whole batch is validated
// before any element executes; a violation anywhere fails the batch up front.
// A later element's execution failure aborts the batch and surfaces as a
// single error, while earlier elements' backend effects stand: this is
// best-effort batching, not an atomic transaction.
func (g *Gateway) Batch(ctx context.Context, queries []QueryDescriptor, isRaw bool) ([]*backend.Result, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: transaction must contain at least one query", apperrors.ErrValidation)
	}
	for i, q := range queries {
		if err := ValidateDescriptor(q); err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
	}

	results := make([]*backend.Result, 0, len(queries))
	for i, q := range queries {
		result, err := g.execute(ctx, q, isRaw)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// execute is one full pipeline pass for an already-validated descriptor.
func (g *Gateway) execute(ctx context.Context, q QueryDescriptor, isRaw bool) (*backend.Result, error) {
	normalized := sqlutil.ValidateAndNormalize(q.SQL)
	if normalized.Error != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, normalized.Error)
	}

	decision, err := g.enforcer.Enforce(ctx, normalized.NormalizedSQL, q.Params, g.ds.Dialect())
	if err != nil {
		return nil, err
	}

	// Raw mode and RLS-modified statements bypass the cache entirely. The
	// cache key is the post-security, pre-transform (sql, params) pair.
	cacheable := !isRaw && !decision.Modified
	if cacheable {
		if objects, hit := g.cache.Lookup(ctx, decision.SQL, q.Params); hit {
			return &backend.Result{Objects: objects}, nil
		}
	}

	result, err := g.dispatcher.Execute(ctx, decision.SQL, q.Params, isRaw)
	if err != nil {
		return nil, err
	}

	if cacheable {
		g.cache.StoreResult(ctx, decision.SQL, q.Params, result.Objects)
	}
	return result, nil
}
