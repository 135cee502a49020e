package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dpax/linkedin-feed/internal/api/rest"
	"github.com/dpax/linkedin-feed/internal/app"
	"github.com/dpax/linkedin-feed/internal/cache"
	"github.com/dpax/linkedin-feed/internal/feed"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the feed document and its Atom/RSS renditions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()

			if err != nil {
				return err
			}

			if port != "" {
				cfg.Port = port
			}

			logger := app.Logger()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			go func() {
				<-sigChan
				logger.Info("Received first shutdown signal, starting graceful shutdown...")
				cancel()

				// If we receive a second signal, exit immediately
				<-sigChan
				logger.Info("Received second shutdown signal, exiting immediately...")
				os.Exit(1)
			}()

			var c cache.Cache = cache.NopCache{}

			if cfg.RedisAddr != "" {
				redisClient, err := cache.NewRedisClient(ctx, cfg.RedisAddr)

				if err != nil {
					return err
				}

				c = redisClient
			} else {
				logger.Warn("REDIS_ADDR is not set, feed renditions are not cached")
			}

			defer c.Close()

			server := rest.NewServer(c, &feed.FileLoader{Path: cfg.Output}, &feed.Generator{Limit: cfg.Limit}, cfg.Limit, cfg.Port)

			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "HTTP port (default from HTTP_SERVER_PORT or 8080)")

	return cmd
}
