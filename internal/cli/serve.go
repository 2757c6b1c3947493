package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lockscan/pkg/observability"
	"github.com/matzehuels/lockscan/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noCache   bool
		noMetrics bool
		maxFiles  int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the lockfile detection and parsing HTTP API",
		Long: `Serve lockfile detection and parsing over HTTP.

Endpoints:
  GET  /healthz     liveness check
  GET  /metrics     Prometheus metrics
  POST /v1/detect   {"filename", "content"} -> {"format", "known"}
  POST /v1/parse    {"files": [{"name", "content"}]} -> merged dependencies

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := c.loadConfig(".")
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			store, keyer, err := c.openCache(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer store.Close()

			var metrics *observability.Prometheus
			if !noMetrics {
				reg := prometheus.NewRegistry()
				reg.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				metrics = observability.NewPrometheus(reg)
				metrics.Install()
				defer observability.Reset()
			}

			srv := server.New(server.Config{
				Addr:     cfg.Server.Addr,
				Cache:    store,
				Keyer:    keyer,
				Metrics:  metrics,
				MaxFiles: maxFiles,
				Logger:   logger,
			})
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address (overrides config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the parse cache")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable /metrics")
	cmd.Flags().IntVar(&maxFiles, "max-files", server.DefaultMaxFiles, "maximum lockfiles per parse request")

	return cmd
}
