package d1

import (
	"context"

	"github.com/querygate-inc/querygate-engine/pkg/backend"
)

func init() {
	backend.Register(backend.AdapterRegistration{
		Info: backend.AdapterInfo{
			Name:        backend.ProviderD1,
			DisplayName: "Cloudflare D1",
			Description: "Connect to a D1 database over the Cloudflare API",
		},
		Factory: func(ctx context.Context, config map[string]any) (backend.Adapter, error) {
			cfg, err := FromMap(config)
			if err != nil {
				return nil, err
			}
			return NewAdapter(cfg), nil
		},
	})
}
