package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/trackplan/internal/config"
	"github.com/matzehuels/trackplan/pkg/cache"
	"github.com/matzehuels/trackplan/pkg/mapdata"
)

// loadConfig reads the config file and environment, then applies any of the
// given flags the user set. bindings maps config keys to flag names.
func (c *CLI) loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	v, err := config.NewViper(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	if used := v.ConfigFileUsed(); used != "" {
		c.Logger.Debug("config loaded", "file", used)
	}
	return config.FromViper(v)
}

// openMapLoader returns the configured map source and a function releasing it.
func (c *CLI) openMapLoader(ctx context.Context, cfg *config.Config) (mapdata.Loader, func(), error) {
	switch cfg.Map.Source {
	case config.SourceMongo:
		l, err := mapdata.NewMongoLoader(ctx, mapdata.MongoConfig{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
			Name:       cfg.Map.Name,
		})
		if err != nil {
			return nil, nil, err
		}
		release := func() {
			if err := l.Close(context.Background()); err != nil {
				c.Logger.Warn("close mongo", "err", err)
			}
		}
		return l, release, nil
	default:
		return mapdata.FileLoader{Path: cfg.Map.Path}, func() {}, nil
	}
}

// openStore returns the configured snapshot store.
func (c *CLI) openStore(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Store.Backend {
	case config.BackendFile:
		return cache.NewFileCache(cfg.Store.Dir)
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	default:
		return cache.NewNullCache(), nil
	}
}

// storeKeyer returns the snapshot keyer, scoped when store.prefix is set.
func storeKeyer(cfg *config.Config) cache.Keyer {
	if cfg.Store.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Store.Prefix)
}
