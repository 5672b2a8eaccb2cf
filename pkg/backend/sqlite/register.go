package sqlite

import (
	"context"

	"github.com/querygate-inc/querygate-engine/pkg/backend"
)

func init() {
	backend.Register(backend.AdapterRegistration{
		Info: backend.AdapterInfo{
			Name:        "sqlite",
			DisplayName: "SQLite",
			Description: "Connect to a local SQLite database file",
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
