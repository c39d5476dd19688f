package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/hupe1980/qbucket"
	"github.com/hupe1980/qbucket/internal/server"
	"github.com/hupe1980/qbucket/prom"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the current catalog version over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			logger := a.logger()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics := prom.New(reg)

			loader := func(ctx context.Context) (*qbucket.Index, error) {
				return a.openIndex(ctx, 0, qbucket.WithMetricsCollector(metrics))
			}

			srv := server.New(nil,
				server.WithLogger(logger.Logger),
				server.WithMetrics(metrics, reg),
				server.WithLoader(loader),
				server.WithMaxInflight(a.cfg.Server.MaxInflight),
			)
			if err := srv.Reload(ctx); err != nil {
				return err
			}

			go srv.Watch(ctx, a.cfg.Server.ReloadInterval)
			return srv.Run(ctx, addr, a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
