// Package server runs the HTTP server until the process is told to stop.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/shashiranjanraj/parcelhub/config"
	"github.com/shashiranjanraj/parcelhub/internal/kernel"
	"github.com/shashiranjanraj/parcelhub/pkg/logger"
)

// Start boots the application with the given store driver and serves until
// SIGINT or SIGTERM.
func Start(driver string) error {
	if err := config.Load(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := kernel.Boot(ctx, driver)
	if err != nil {
		return err
	}

	addr := ":" + config.AppPort()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		_ = app.Close(context.Background())
		return err
	}
	return Serve(ctx, ln, app, config.ShutdownTimeout())
}

// Serve runs the app on ln until ctx is cancelled, then drains in-flight
// requests for up to timeout and releases the app's resources.
func Serve(ctx context.Context, ln net.Listener, app *kernel.App, timeout time.Duration) error {
	srv := &http.Server{
		Handler:           app.Kernel.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go app.Hub.Run(hubCtx)

	stopSweep := make(chan struct{})
	defer close(stopSweep)
	if app.Limiter != nil {
		go app.Limiter.Run(stopSweep)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("parcelhub listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, draining connections")
	case serveErr = <-errCh:
		logger.Error("server stopped unexpectedly", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	stopHub()
	if err := app.Close(shutdownCtx); err != nil {
		logger.Error("closing resources failed", "error", err)
	}

	logger.Info("shutdown complete")
	return serveErr
}
