package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/iwvelando/brrrr-analyzer/internal/cache"
	"github.com/iwvelando/brrrr-analyzer/internal/config"
	"github.com/iwvelando/brrrr-analyzer/internal/server"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) serveCmd() *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis engine over HTTP",
		Long: `Serve the JSON API under /api/v1. Results of calculate, sensitivity and
timeline requests are cached by the configured cache driver.

Sending SIGHUP reloads the configuration file and publishes its rules;
requests already running keep the rules they started with.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if address == "" {
				address = a.conf.Server.Address
			}

			results, err := cache.New(a.logger, a.conf.Cache)
			if err != nil {
				return eris.Wrap(err, "failed to create result cache")
			}
			defer func() {
				_ = results.Close()
			}()

			go a.reloadOnHangup(ctx)

			handler := server.NewHandler(a.logger, a.engine(), results, *a.conf, version)
			return server.ListenAndServe(ctx, a.logger, address, handler)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "listen address (default server.address)")
	return cmd
}

// reloadOnHangup reloads the configuration on every SIGHUP until ctx is
// done. A configuration that fails to load leaves the current rules in place.
func (a *app) reloadOnHangup(ctx context.Context) {
	hangup := make(chan os.Signal, 1)
	signal.Notify(hangup, syscall.SIGHUP)
	defer signal.Stop(hangup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hangup:
			conf, err := config.Reload(a.configPath, a.store)
			if err != nil {
				a.logger.Error("failed to reload configuration",
					zap.String("op", "main.reloadOnHangup"),
					zap.String("path", a.configPath),
					zap.Error(err),
				)
				continue
			}
			for _, warning := range conf.ValidateConfiguration() {
				a.logger.Warn("Configuration warning: "+warning,
					zap.String("op", "main.reloadOnHangup"),
				)
			}
			a.logger.Info("configuration reloaded",
				zap.String("op", "main.reloadOnHangup"),
				zap.String("rulesVersion", conf.Rules.Version()),
			)
		}
	}
}
