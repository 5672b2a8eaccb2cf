package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/querygate-inc/querygate-engine/pkg/apperrors"
	"github.com/querygate-inc/querygate-engine/pkg/logging"
	"github.com/querygate-inc/querygate-engine/pkg/shape"
)

// HostedProxy executes a statement via a remote API instead of a direct
// driver connection. Configured through a hosted execution credential.
type HostedProxy interface {
	Query(ctx context.Context, sqlText string, params any) (shape.ObjectResult, error)
}

// Dispatcher routes post-security statements to the right execution path and
// returns results in the shape the caller requested. Callers never see an
// inconsistent shape across backends: normalization happens here, once.
type Dispatcher struct {
	ds     *DataSource
	proxy  HostedProxy // nil unless a hosted credential is configured
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher for the gateway's datasource. proxy may
// be nil; when set it takes precedence over direct driver adapters for
// external sources.
func NewDispatcher(ds *DataSource, proxy HostedProxy, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{ds: ds, proxy: proxy, logger: logger}
}

// Execute runs one statement and returns the result in raw or object shape.
func (d *Dispatcher) Execute(ctx context.Context, sqlText string, params any, isRaw bool) (*Result, error) {
	if d.ds.Source == SourceInternal {
		return d.ds.RPC.ExecuteQuery(ctx, sqlText, params, isRaw)
	}

	if d.proxy != nil {
		return d.executeProxied(ctx, sqlText, params, isRaw)
	}
	return d.executeDirect(ctx, sqlText, params, isRaw)
}

// executeProxied forwards the statement to the hosted execution endpoint.
func (d *Dispatcher) executeProxied(ctx context.Context, sqlText string, params any, isRaw bool) (*Result, error) {
	objects, err := d.proxy.Query(ctx, sqlText, params)
	if err != nil {
		return nil, err
	}
	if isRaw {
		return &Result{Raw: shape.ToRaw(objects)}, nil
	}
	return &Result{Objects: objects}, nil
}

// executeDirect opens a dialect-specific connection, issues the statement,
// and closes the connection. Pooling, if desired, lives in the driver layer.
func (d *Dispatcher) executeDirect(ctx context.Context, sqlText string, params any, isRaw bool) (*Result, error) {
	reg, err := d.resolve()
	if err != nil {
		return nil, err
	}

	adapter, err := reg.Factory(ctx, d.ds.External.Config)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", reg.Info.Name, err)
	}
	defer func() {
		if closeErr := adapter.Close(); closeErr != nil {
			d.logger.Warn("Failed to close adapter",
				zap.String("adapter", reg.Info.Name),
				zap.String("error", logging.SanitizeError(closeErr)))
		}
	}()

	raw, err := adapter.Query(ctx, sqlText, params)
	if err != nil {
		return nil, err
	}
	if isRaw {
		return &Result{Raw: raw}, nil
	}
	return &Result{Objects: shape.ToObjects(raw)}, nil
}

// resolve picks the adapter registration for the external connection.
// A provider name wins over the plain dialect.
func (d *Dispatcher) resolve() (AdapterRegistration, error) {
	ext := d.ds.External
	if ext.Provider != "" {
		if reg, ok := lookup(ext.Provider); ok {
			return reg, nil
		}
		return AdapterRegistration{}, fmt.Errorf("%w: provider %q", apperrors.ErrUnsupportedBackend, ext.Provider)
	}
	if reg, ok := lookup(ext.Dialect); ok {
		return reg, nil
	}
	return AdapterRegistration{}, fmt.Errorf("%w: dialect %q", apperrors.ErrUnsupportedBackend, ext.Dialect)
}
