package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alfredjeanlab/convoy/internal/cache"
	"github.com/alfredjeanlab/convoy/internal/events"
	"github.com/alfredjeanlab/convoy/internal/server"
	"github.com/alfredjeanlab/convoy/internal/sheriff"
	"github.com/spf13/cobra"
)

var sheriffCmd = &cobra.Command{
	Use:     "sheriff",
	Short:   "Run the aggregation daemon",
	GroupID: "federation",
	RunE: func(cmd *cobra.Command, args []string) error {
		withHTTP, _ := cmd.Flags().GetBool("http")
		interval, _ := cmd.Flags().GetDuration("interval")

		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		file, rigs, err := loadFederation(cfg)
		if err != nil {
			return err
		}
		if interval > 0 {
			cfg.Interval = interval
		}

		c, err := cache.Open(cfg.CacheURL)
		if err != nil {
			return err
		}

		// Create event publisher.
		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				c.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (CONVOY_NATS_URL not set)")
		}

		dests := buildDestinations(context.Background(), file.Sync, logger)

		// The HTTP server wraps the publisher so daemon events mirror
		// to connected SSE clients.
		var srv *server.Server
		var httpServer *http.Server
		if withHTTP {
			srv = server.New(server.Options{Cache: c, Logger: logger})
			publisher = srv.Publisher(publisher)
			httpServer = &http.Server{
				Addr:    cfg.HTTPAddr,
				Handler: srv.NewHTTPHandler(cfg.AuthToken),
			}
		}

		daemon := sheriff.New(sheriff.Config{
			Aggregator:   newAggregator(cfg, logger),
			Rigs:         rigs,
			Cache:        c,
			Publisher:    publisher,
			Destinations: dests,
			Interval:     cfg.Interval,
			PassTimeout:  cfg.PassTimeout,
			Logger:       logger,
		})
		if srv != nil {
			srv.SetSource(daemon)
		}

		if httpServer != nil {
			go func() {
				logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", "err", err)
				}
			}()
		}

		daemon.Start()
		logger.Info("sheriff started",
			"rigs", len(rigs),
			"interval", cfg.Interval,
			"cache", cfg.CacheURL,
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Graceful shutdown. Stop blocks until a non-sleeping pass
		// finishes, so the cache stays consistent.
		daemon.Stop()
		logger.Info("sheriff stopped")

		if httpServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", "err", err)
			}
			logger.Info("HTTP server stopped")
		}

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := c.Close(); err != nil {
			logger.Error("error closing cache", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

func init() {
	sheriffCmd.Flags().Bool("http", false, "serve the read-only HTTP/SSE API on CONVOY_HTTP_ADDR")
	sheriffCmd.Flags().Duration("interval", 0, "override the pass interval")
}
