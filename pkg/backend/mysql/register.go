package mysql

import (
	"context"

	"github.com/querygate-inc/querygate-engine/pkg/backend"
)

func init() {
	backend.Register(backend.AdapterRegistration{
		Info: backend.AdapterInfo{
			Name:        "mysql",
			DisplayName: "MySQL",
			Description: "Connect to MySQL 5.7+, MariaDB, Aurora MySQL",
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
