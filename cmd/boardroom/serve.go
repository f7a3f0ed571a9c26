package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"boardroom/internal/catalog"
	"boardroom/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the boardroom HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		watcher, err := catalog.NewWatcher(a.provider)
		if err != nil {
			logger.Warn("catalog watcher unavailable", zap.Error(err))
		} else if watcher != nil {
			if err := watcher.Start(ctx); err != nil {
				logger.Warn("catalog watcher failed to start", zap.Error(err))
			} else {
				defer watcher.Stop()
				logger.Info("watching catalog directory", zap.String("dir", cfg.CatalogDir))
			}
		}

		httpServer := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           server.New(a.engine).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		group, groupCtx := errgroup.WithContext(ctx)
		group.Go(func() error {
			logger.Info("boardroom listening", zap.String("addr", cfg.Server.Addr))
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		group.Go(func() error {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			logger.Info("shutting down")
			return httpServer.Shutdown(shutdownCtx)
		})

		return group.Wait()
	},
}
