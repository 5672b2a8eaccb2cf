package postgres

import (
	"context"

	"github.com/querygate-inc/querygate-engine/pkg/backend"
)

func init() {
	backend.Register(backend.AdapterRegistration{
		Info: backend.AdapterInfo{
			Name:        "postgres",
			DisplayName: "PostgreSQL",
			Description: "Connect to PostgreSQL 12+, Aurora PostgreSQL, Supabase",
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
