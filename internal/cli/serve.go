package cli

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/trackplan/internal/config"
	"github.com/matzehuels/trackplan/internal/server"
	"github.com/matzehuels/trackplan/pkg/observability"
	"github.com/matzehuels/trackplan/pkg/session"
)

func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the planning service",
		Long: `Serve loads the configured map and exposes one planning session over HTTP
and WebSocket until interrupted.`,
		Example: `  trackplan serve --map mapa.json
  trackplan serve --addr :8080 --watch
  TRACKPLAN_STORE_BACKEND=redis trackplan serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, map[string]string{
				"server.addr": "addr",
				"map.path":    "map",
				"map.watch":   "watch",
			})
			if err != nil {
				return err
			}
			return c.runServe(cmd, cfg)
		},
	}

	cmd.Flags().String("addr", ":5000", "listen address")
	cmd.Flags().String("map", "mapa.json", "map file (JSON or TOML)")
	cmd.Flags().Bool("watch", false, "reload the map file when it changes")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	loader, release, err := c.openMapLoader(ctx, cfg)
	if err != nil {
		return err
	}
	defer release()
	m, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	store, err := c.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var metrics http.Handler
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		observability.Register(observability.NewPrometheus(reg))
		metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	sess, err := session.New(m, session.Options{
		Logger:        c.Logger,
		Store:         store,
		Keyer:         storeKeyer(cfg),
		StoreTTL:      cfg.Store.TTL,
		ObstacleDelay: cfg.Obstacles.Expiry,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	printSuccess(out, "Loaded map %s (%dx%d, %d walls)", m.Name, m.Width, m.Height, len(m.Walls))
	printKeyValue(out, "session", sess.ID())
	printKeyValue(out, "listen", cfg.Server.Addr)
	printKeyValue(out, "store", cfg.Store.Backend)
	if cfg.Store.Backend != config.BackendNone {
		printNextStep(out, "Inspect the session", appName+" snapshot "+sess.ID())
	}

	srv := server.New(sess, server.Options{Logger: c.Logger, Metrics: metrics})
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(gctx, cfg.Server.Addr) })
	if cfg.Map.Watch {
		w := server.NewMapWatcher(cfg.Map.Path, sess, c.Logger)
		g.Go(func() error { return w.Run(gctx) })
	}
	return g.Wait()
}
