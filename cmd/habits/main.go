// Command habits serves the /habits API.
//
// Reads are served cache-aside from Redis; writes invalidate the caller's
// cached list and publish a change event. The service also subscribes to the
// shared events channel and drops a user's cached list whenever the records
// service reports a change to one of their records.
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
	"github.com/MGallo-Code/habitual/internal/habits"
	"github.com/MGallo-Code/habitual/internal/httputil"
	"github.com/MGallo-Code/habitual/internal/metrics"
	"github.com/MGallo-Code/habitual/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Embeds the migration files INTO the go bin

//go:embed migrations/*.sql
var migrationsDir embed.FS

const serviceName = "habits"

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

	// Cancel ctx on SIGINT/SIGTERM; run() shuts down when ctx is done.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run() is a separate func so deferred closes always execute before os.Exit.
	if err := run(ctx, cfg, nil); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

// run holds all server logic and returns error instead of calling os.Exit.
// Shuts down when ctx is cancelled. If ready is non-nil, the server's base
// URL is sent on it once the listener is bound.
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

	// One Redis client for cache, publisher and subscriber; closed when run returns.
	rdb, err := store.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to set up redis client: %w", err)
	}
	defer rdb.Close()

	m := metrics.New(serviceName)
	rs := store.NewRedisStore(rdb)
	ep := events.NewPublisher(rdb, cfg.EventsChannel, m)

	// Record changes made by the records service invalidate this service's cache.
	sub := events.NewSubscriber(rdb, cfg.EventsChannel, events.InvalidateOnRecordEvents(rs, m), m)
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
	// Stop the subscriber before rdb is closed.
	defer func() {
		cancelSub()
		<-subDone
	}()

	h := &habits.Handler{PS: ps, RS: rs, EP: ep, CacheTTL: cfg.HabitsCacheTTL, Metrics: m}
	verifier := auth.NewTokenVerifier(cfg.JWTSecret)

	// Bind listener; ":0" picks a free port (useful in tests).
	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	return httputil.Serve(ctx, ln, buildRouter(h, verifier, httputil.Health(ps, rs), m), cfg.ShutdownTimeout, ready)
}

// buildRouter wires all routes and middleware.
// Called from run() and from smoke tests.
func buildRouter(h *habits.Handler, v *auth.TokenVerifier, health http.HandlerFunc, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", health)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	// Authentication required routes
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(v))
		r.Get("/habits", h.ListHabits)
		r.Post("/habits", h.CreateHabit)
		r.Put("/habits/{id}", h.UpdateHabit)
		r.Delete("/habits/{id}", h.DeleteHabit)
	})

	return r
}
