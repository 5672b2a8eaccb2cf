package mssql

import (
	"context"

	"github.com/querygate-inc/querygate-engine/pkg/backend"
)

func init() {
	backend.Register(backend.AdapterRegistration{
		Info: backend.AdapterInfo{
			Name:        "sqlserver",
			DisplayName: "Microsoft SQL Server",
			Description: "Connect to SQL Server 2017+, Azure SQL",
		},
		Factory: func(ctx context.Context, config map[string]any) (backend.Adapter, error) {
			cfg, err := FromMap(config)
			if err != nil {
				return nil, err
			}
			return NewAdapter(ctx, cfg)
		},
	})
}
