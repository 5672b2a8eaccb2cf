// Package backend dispatches post-security statements to the internal engine
// or an external adapter and normalizes the result shape exactly once.
package backend

import (
	"context"
	"fmt"

	"github.com/querygate-inc/querygate-engine/pkg/config"
	"github.com/querygate-inc/querygate-engine/pkg/shape"
)

// Source identifies the execution target kind.
type Source string

const (
	SourceInternal Source = "internal"
	SourceExternal Source = "external"
)

// Provider names for hosted backends that are distinct from a raw dialect.
const (
	ProviderD1       = "d1"
	ProviderTurso    = "turso"
	ProviderStarbase = "starbasedb"
)

// RPCExecutor is the narrow contract of the co-located internal engine.
// The engine understands the isRaw flag itself and returns the matching shape.
type RPCExecutor interface {
	ExecuteQuery(ctx context.Context, sqlText string, params any, isRaw bool) (*Result, error)
}

// Adapter executes a statement against one external backend and returns the
// engine-native tabular result. Each instance owns its connection and must be
// closed after the call; pooling is a driver-layer concern.
type Adapter interface {
	Query(ctx context.Context, sqlText string, params any) (*shape.RawResult, error)
	Close() error
}

// Result carries the dispatch outcome in the shape the caller requested.
// Exactly one of Raw or Objects is set, driven by the isRaw flag.
type Result struct {
	Raw     *shape.RawResult
	Objects shape.ObjectResult
}

// ExternalConnection describes one external backend.
type ExternalConnection struct {
	Dialect  string
	Provider string
	Config   map[string]any
}

// DataSource identifies whether execution targets the internal engine or an
// external connection. Constructed once per gateway instance and read-only
// thereafter.
type DataSource struct {
	Source   Source
	RPC      RPCExecutor
	External *ExternalConnection
}

// NewDataSource builds the gateway's datasource from configuration. An
// external source without a connection descriptor is a fatal configuration
// error; it is rejected here, before any request is processed.
func NewDataSource(cfg *config.Config, rpc RPCExecutor) (*DataSource, error) {
	switch cfg.Source.Type {
	case config.SourceInternal:
		if rpc == nil {
			return nil, fmt.Errorf("internal datasource requires an engine RPC client")
		}
		return &DataSource{Source: SourceInternal, RPC: rpc}, nil
	case config.SourceExternal:
		ext := cfg.Source.External
		if ext.Empty() {
			return nil, fmt.Errorf("external datasource requires a connection descriptor")
		}
		return &DataSource{
			Source: SourceExternal,
			External: &ExternalConnection{
				Dialect:  ext.Dialect,
				Provider: ext.Provider,
				Config:   ext.AsMap(),
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Source.Type)
	}
}

// Dialect returns the SQL dialect of the active backend. The internal engine
// and all hosted providers speak the sqlite dialect.
func (ds *DataSource) Dialect() string {
	if ds.Source == SourceInternal {
		return "sqlite"
	}
	if ds.External != nil && ds.External.Dialect != "" {
		return ds.External.Dialect
	}
	return "sqlite"
}
