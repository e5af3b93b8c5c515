package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	appconfig "github.com/edgeflag/edgeflag/internal/config"
	"github.com/edgeflag/edgeflag/internal/logger"
	"github.com/edgeflag/edgeflag/internal/server"

	"github.com/spf13/cobra"
)

const shutdownGracePeriod = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := appconfig.Load()
	if err != nil {
		return err
	}

	log := logger.Initialize(cfg.Environment, logger.ParseLevel(cfg.LogLevel))

	a, err := buildAppFromConfig(ctx, cfg, log)
	if err != nil {
		return err
	}

	router := server.NewRouter(
		a.identity,
		a.analytics,
		a.segments,
		log,
		a.cfg.RequestTimeout,
		a.cfg.ScanPageSize,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Port),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
	}

	return nil
}
