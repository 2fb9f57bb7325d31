package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dialgraph/callflow"
	fileAdapter "github.com/dialgraph/callflow/internal/adapters/file"
	httpAdapter "github.com/dialgraph/callflow/internal/adapters/http"
	"github.com/dialgraph/callflow/internal/adapters/memory"
	redisAdapter "github.com/dialgraph/callflow/internal/adapters/redis"
	"github.com/dialgraph/callflow/internal/config"
	"github.com/dialgraph/callflow/internal/logging"
	"github.com/dialgraph/callflow/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long:  `Starts the conversation engine in server mode, answering telephony provider webhooks with the next line to speak. Configuration comes from CALLFLOW_* environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.ListenAddr = addr
		}

		logger := logging.New(logging.ParseLevel(cfg.LogLevel))

		registry := prometheus.NewRegistry()
		metrics := observability.New(registry)

		stackOpts := []callflow.Option{
			callflow.WithLogger(logger),
			callflow.WithMetrics(metrics),
			callflow.WithDefaultCampaign(cfg.DefaultCampaign),
		}

		switch cfg.Store {
		case "memory":
			stackOpts = append(stackOpts, callflow.WithStore(memory.New()))
		case "file":
			stackOpts = append(stackOpts, callflow.WithStore(fileAdapter.New(cfg.SessionDir)))
		case "redis":
			client := backend.NewClient(&backend.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			defer client.Close()
			stackOpts = append(stackOpts,
				callflow.WithStore(redisAdapter.NewFromClient(client)),
				callflow.WithLocker(redisAdapter.NewLocker(client, "callflow:")),
			)
		default:
			return fmt.Errorf("unknown store backend %q (want memory, file, or redis)", cfg.Store)
		}

		stack := callflow.New(stackOpts...)

		handler := httpAdapter.NewHandler(stack.Engine, stack.Sessions,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMetricsGatherer(registry),
			httpAdapter.WithSessionGrace(cfg.SessionGrace),
			httpAdapter.WithMaxReprompts(cfg.MaxReprompts),
		)

		srv := &http.Server{
			Addr:    cfg.ListenAddr,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("starting webhook server", "addr", srv.Addr, "store", cfg.Store)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("starting shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("failed to stop server: %w", err)
				}
			}
			logger.Info("server stopped")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides CALLFLOW_LISTEN_ADDR)")
}
