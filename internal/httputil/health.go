// health.go -- Health check handler for GET /health.
package httputil

import (
	"context"
	"encoding/json"
	"net/http"
)

// HealthChecker is anything that can report its own reachability.
// Satisfied by *store.PostgresStore and *store.RedisStore.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// Health returns a GET /health handler that pings Postgres and Redis and
// reports per-dependency status. 200 if both are healthy, 503 if either is down.
func Health(pg, rd HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postgresStatus := "ok"
		redisStatus := "ok"

		if err := pg.CheckHealth(r.Context()); err != nil {
			LogError(r, "postgres health check failed", "error", err)
			postgresStatus = "error"
		}
		if err := rd.CheckHealth(r.Context()); err != nil {
			LogError(r, "redis health check failed", "error", err)
			redisStatus = "error"
		}

		w.Header().Set("Content-Type", "application/json")
		if postgresStatus == "error" || redisStatus == "error" {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		json.NewEncoder(w).Encode(struct {
			Postgres string `json:"postgres"`
			Redis    string `json:"redis"`
		}{postgresStatus, redisStatus})
	}
}
