package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/vetchart/internal/appointments"
	httpmiddleware "github.com/wolfman30/vetchart/internal/http/middleware"
	"github.com/wolfman30/vetchart/internal/observability/metrics"
	"github.com/wolfman30/vetchart/pkg/logging"
)

const readinessTimeout = 2 * time.Second

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// readiness pings the configured backing services. Unconfigured services
// are reported as "disabled" and do not fail the probe.
func readiness(dbCheck func(context.Context) error, rdb *redis.Client, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		resp := readinessResponse{Status: "ok", Checks: map[string]string{}}
		check := func(name string, fn func(context.Context) error) {
			if fn == nil {
				resp.Checks[name] = "disabled"
				return
			}
			if err := fn(ctx); err != nil {
				logger.Warn("readiness check failed", "check", name, "error", err)
				resp.Checks[name] = "error"
				resp.Status = "unavailable"
				return
			}
			resp.Checks[name] = "ok"
		}

		var redisCheck func(context.Context) error
		if rdb != nil {
			redisCheck = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		}
		check("database", dbCheck)
		check("redis", redisCheck)

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

type debugAppointmentsResponse struct {
	Origin      appointments.Origin     `json:"origin"`
	GeneratedAt time.Time               `json:"generated_at"`
	Count       int                     `json:"count"`
	Days        int                     `json:"days"`
	Dropped     int                     `json:"dropped"`
	Refreshes   metrics.RefreshSnapshot `json:"refreshes"`
	RequestedBy string                  `json:"requested_by,omitempty"`
}

func debugAppointments(refresher *appointments.Refresher, gatherer prometheus.Gatherer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current := refresher.Holder().Current()
		claims, _ := httpmiddleware.AdminClaimsFromContext(r.Context())
		resp := debugAppointmentsResponse{
			RequestedBy: claims.Subject,
			Origin:      current.Origin,
			GeneratedAt: current.GeneratedAt,
			Count:       current.Index.Count(),
			Days:        len(current.Index),
			Dropped:     current.Dropped,
			Refreshes:   metrics.SnapshotRefreshes(gatherer),
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
