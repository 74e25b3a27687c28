// server.go -- HTTP server lifecycle shared by both service binaries.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Serve runs h on ln until ctx is cancelled or the server fails.
// On cancellation it stops accepting connections and waits up to
// shutdownTimeout for in-flight requests before returning.
// If ready is non-nil, the base URL is sent on it once serving has started.
func Serve(ctx context.Context, ln net.Listener, h http.Handler, shutdownTimeout time.Duration, ready chan<- string) error {
	server := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", ln.Addr().String())
		// Only report errors other than an explicit shutdown.
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if ready != nil {
		ready <- "http://" + ln.Addr().String()
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server...", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
