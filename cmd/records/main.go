// Command records serves the /habits/{habitId}/records API.
//
// Each write upserts or deletes one (user, habit, day) row in Postgres and
// publishes a record event so the habits service can invalidate its cache.
// The service also subscribes to the shared events channel and logs what it
// receives.
package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MGallo-Code/habitual/internal/auth"
	"github.com/MGallo-Code/habitual/internal/config"
	"github.com/MGallo-Code/habitual/internal/events"
	"github.com/MGallo-Code/habitual/internal/httputil"
	"github.com/MGallo-Code/habitual/internal/metrics"
	"github.com/MGallo-Code/habitual/internal/records"
	"github.com/MGallo-Code/habitual/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed migrations/*.sql
var migrationsDir embed.FS

const serviceName = "records"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     cfg.LogLevel,
		AddSource: cfg.LogLevel == slog.LevelDebug,
	})).With("service", serviceName))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, nil); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

// run holds all server logic and returns error instead of calling os.Exit.
// If ready is non-nil, the server's base URL is sent on it once bound.
func run(ctx context.Context, cfg *config.Config, ready chan<- string) error {
	ps, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to set up postgres store: %w", err)
	}
	defer ps.Close()

	migrationsFS, err := fs.Sub(migrationsDir, "migrations")
	if err != nil {
		return fmt.Errorf("failed to access embedded migrations: %w", err)
	}
	if err := ps.Migrate(ctx, serviceName, migrationsFS); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	rdb, err := store.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to set up redis client: %w", err)
	}
	defer rdb.Close()

	m := metrics.New(serviceName)
	ep := events.NewPublisher(rdb, cfg.EventsChannel, m)

	sub := events.NewSubscriber(rdb, cfg.EventsChannel, events.LogEvent, m)
	subCtx, cancelSub := context.WithCancel(ctx)
	defer cancelSub()
	listen, err := sub.Subscribe(subCtx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}
	subDone := make(chan struct{})
	go func() {
		defer close(subDone)
		listen()
	}()
	defer func() {
		cancelSub()
		<-subDone
	}()

	h := &records.Handler{PS: ps, EP: ep}
	verifier := auth.NewTokenVerifier(cfg.JWTSecret)

	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	return httputil.Serve(ctx, ln, buildRouter(h, verifier, httputil.Health(ps, store.NewRedisStore(rdb)), m), cfg.ShutdownTimeout, ready)
}

// buildRouter wires all routes and middleware.
func buildRouter(h *records.Handler, v *auth.TokenVerifier, health http.HandlerFunc, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", health)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(v))
		r.Get("/habits/{habitId}/records", h.GetRecords)
		r.Post("/habits/{habitId}/records", h.UpsertRecord)
		r.Delete("/habits/{habitId}/records", h.DeleteRecord)
	})

	return r
}
