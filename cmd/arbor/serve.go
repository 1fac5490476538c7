package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/arborlabs/arbor"
	httpAdapter "github.com/arborlabs/arbor/internal/adapters/http"
	"github.com/arborlabs/arbor/internal/config"
	"github.com/arborlabs/arbor/internal/logging"
	"github.com/arborlabs/arbor/pkg/adapters/file"
	redisAdapter "github.com/arborlabs/arbor/pkg/adapters/redis"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the arbor engine in server mode, exposing graphs and playback
sessions as a JSON API over HTTP. Graphs are stored as documents in the
--graphs directory. With --redis, sessions are shared across replicas.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			fmt.Printf("Error loading configuration: %v\n", err)
			os.Exit(1)
		}

		logger := logging.New(logging.ParseLevel(cfg.LogLevel))

		if err := os.MkdirAll(cfg.Graphs, 0755); err != nil {
			fmt.Printf("Error creating graphs directory: %v\n", err)
			os.Exit(1)
		}
		graphs := file.New(cfg.Graphs)

		opts := []arbor.Option{arbor.WithLogger(logger)}
		if cfg.RedisAddr != "" {
			client := backend.NewClient(&backend.Options{
				Addr: cfg.RedisAddr,
				DB:   cfg.RedisDB,
			})
			opts = append(opts,
				arbor.WithSessionStore(redisAdapter.NewFromClient(client)),
				arbor.WithLocker(redisAdapter.NewLocker(client, "arbor:lock:")),
			)
			logger.Info("using redis session store", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		}

		service := arbor.New(graphs, opts...)
		handler := httpAdapter.NewHandler(service, logger)

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: handler,
		}

		watchCtx, cancelWatch := context.WithCancel(context.Background())
		defer cancelWatch()
		if cfg.Watch {
			events, err := graphs.Watch(watchCtx)
			if err != nil {
				logger.Warn("document watching unavailable", "err", err)
			} else {
				go func() {
					for name := range events {
						logger.Info("graph changed on disk", "graph", name)
					}
				}()
			}
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("starting arbor server", "addr", srv.Addr, "graphs", cfg.Graphs)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("starting shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("error killing server", "err", err)
				}
			}
			logger.Info("arbor server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flag names double as configuration keys, so they use underscores.
	serveCmd.Flags().String("graphs", ".arbor/graphs", "Directory containing dialog documents")
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for shared sessions (empty = in-memory)")
	serveCmd.Flags().Int("redis_db", 0, "Redis database number")
	serveCmd.Flags().String("log_level", "info", "Log level: debug, info, warn, error")
	serveCmd.Flags().BoolP("watch", "w", false, "Log document changes on disk")
}
