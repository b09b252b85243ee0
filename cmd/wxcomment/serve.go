package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wxcomment/wxcomment-go/corpus"
	"github.com/wxcomment/wxcomment-go/forecast"
	"github.com/wxcomment/wxcomment-go/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			warmer := forecast.NewWarmer(a.forecasts, a.locations,
				a.cfg.PopularLocationsPath, a.cfg.WarmingInterval, a.cfg.MaxParallelWorkers, a.log)
			go warmer.Run(ctx)
			go a.monitor.Run(ctx)

			if watcher, err := corpus.NewWatcher(a.repo, a.log); err != nil {
				a.log.Warn("corpus watcher unavailable", zap.Error(err))
			} else {
				go watcher.Run(ctx)
			}

			srv := server.New(a.cfg, a.locations, a.forecasts, a.gen, a.hist, a.log)
			return srv.ListenAndServe(ctx)
		},
	}
}
