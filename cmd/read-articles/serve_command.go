package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"read-articles/internal/config"
	"read-articles/internal/server"
	"read-articles/internal/watch"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var withWatch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Preview the published site and feed on localhost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := config.ListenAddr()
			if err := config.ValidateListenAddr(listenAddr); err != nil {
				return fmt.Errorf("invalid listen address %q: %w", listenAddr, err)
			}

			pub, err := ctx.publisher(false)
			if err != nil {
				return err
			}
			ws, settings, _ := ctx.ensure()
			logger := ctx.logger

			if withWatch {
				w, err := watch.New(ws, pub, config.AllowedExtensions(), config.RefreshDebounce(), logger)
				if err != nil {
					return fmt.Errorf("start watcher: %w", err)
				}
				defer func() {
					if err := w.Close(); err != nil {
						logger.Printf("error closing watcher: %v", err)
					}
				}()
			}

			handler := server.New(pub, ws.DocsDir, settings.BaseURL, logger)
			httpServer := &http.Server{
				Addr:              listenAddr,
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			runCtx, stop := signalContext(cmd.Context())
			defer stop()

			go func() {
				<-runCtx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Printf("graceful shutdown error: %v", err)
				}
			}()

			logger.Printf("listening on %s (docs directory: %s)", listenAddr, ws.DocsDir)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server error: %w", err)
			}
			logger.Println("shutdown complete")
			return nil
		},
	}

	cmd.Flags().BoolVar(&withWatch, "watch", false, "Regenerate whenever the ledger or an episode file changes")
	return cmd
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the feed and page whenever the ledger changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := ctx.publisher(false)
			if err != nil {
				return err
			}
			ws, _, _ := ctx.ensure()
			logger := ctx.logger

			if !watch.Exists(ws) {
				logger.Printf("no ledger at %s yet, waiting for the first episode", ws.LedgerPath)
			}

			w, err := watch.New(ws, pub, config.AllowedExtensions(), config.RefreshDebounce(), logger)
			if err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}

			runCtx, stop := signalContext(cmd.Context())
			defer stop()

			logger.Printf("watching %s", ws.Root)
			<-runCtx.Done()

			if err := w.Close(); err != nil {
				return err
			}
			if last := w.Last(); last.Err != nil {
				logger.Printf("last regeneration failed: %v", last.Err)
			}
			logger.Printf("stopped after %d regenerations", w.Runs())
			return nil
		},
	}
}
