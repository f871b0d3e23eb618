package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hearthd/hearthd"
	"github.com/hearthd/hearthd/integrations/demo"
	"github.com/hearthd/hearthd/internal/config"
	redisstore "github.com/hearthd/hearthd/pkg/adapters/redis"
)

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// newHub assembles a Hub from the config: Redis-backed entries when a
// Redis address is set, in-memory otherwise, with the bundled
// integrations registered.
func newHub(cfg config.Config, logger *slog.Logger) *hearthd.Hub {
	opts := []hearthd.Option{
		hearthd.WithLogger(logger),
		hearthd.WithFlowIdleTimeout(cfg.FlowIdleTimeout.Std()),
	}
	if cfg.Redis.Addr != "" {
		opts = append(opts, hearthd.WithStore(
			redisstore.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB),
		))
	}

	hub := hearthd.New(opts...)
	demo.Register(hub.Handlers)
	return hub
}
