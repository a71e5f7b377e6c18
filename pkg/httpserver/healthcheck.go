package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/dmitrymomot/tenantkit/pkg/logger"
)

// Probe reports whether a dependency is reachable.
type Probe func(context.Context) error

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthCheckHandler serves liveness when probes is empty and readiness
// otherwise. Every probe runs with timeout; any failure turns the response
// into 503 with the failing dependency marked "down".
func HealthCheckHandler(log *slog.Logger, timeout time.Duration, probes map[string]Probe) http.HandlerFunc {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	names := slices.Sorted(maps.Keys(probes))

	return func(w http.ResponseWriter, r *http.Request) {
		if len(names) == 0 {
			writeHealth(w, http.StatusOK, healthReport{Status: "alive"})
			return
		}

		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		report := healthReport{Status: "ready", Checks: make(map[string]string, len(names))}
		status := http.StatusOK
		for _, name := range names {
			if err := probes[name](ctx); err != nil {
				log.ErrorContext(ctx, "readiness check failed", slog.String("dependency", name), logger.Error(err))
				report.Checks[name] = "down"
				report.Status = "not_ready"
				status = http.StatusServiceUnavailable
				continue
			}
			report.Checks[name] = "up"
		}
		writeHealth(w, status, report)
	}
}

func writeHealth(w http.ResponseWriter, status int, report healthReport) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}
