package tokenstore

import (
	"fmt"

	"github.com/mrcode/diabetes-dashboard/internal/config"
)

// Open builds the store selected by DASHBOARD_TOKEN_STORE
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.TokenStoreMemory:
		return NewMemoryStore(), nil
	case config.TokenStoreRedis:
		return NewRedisStore(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Profile:  cfg.Profile,
		})
	case config.TokenStoreFile, "":
		return NewFileStore()
	default:
		return nil, fmt.Errorf("unknown token store %q", cfg.Backend)
	}
}
