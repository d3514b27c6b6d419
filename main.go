package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatrelay/config"
	"chatrelay/handlers"
	"chatrelay/hub"
	"chatrelay/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := config.NewLogger(cfg.Env)
	m := metrics.New()
	h := hub.NewHub(logger, m)

	c := handlers.NewCORS(cfg.AllowedOrigins)
	srv := handlers.NewServer(cfg, h, handlers.NewDispatcher(h, logger, m), c, logger)

	httpServer := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handlers.NewRouter(srv, h, m, c, cfg.StaticDir),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.starting", "addr", cfg.ServerAddr, "env", cfg.Env, "static_dir", cfg.StaticDir)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("server.stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// hijacked websocket connections are not tracked by Shutdown
	err = httpServer.Shutdown(shutdownCtx)
	h.CloseAll()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server.stopped")
	return nil
}
