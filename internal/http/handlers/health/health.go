// Package health serves the liveness endpoint.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aanand-mishra/degree-registry/internal/utils/response"
)

// Pinger is satisfied by storage.Storage.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is the body of GET /api/health.
type Status struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Storage string `json:"storage"`
}

const serviceName = "degree-registry"

// Handler handles GET /api/health. It answers 503 when the storage
// backend cannot be reached within a second.
func Handler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusServiceUnavailable,
				Status{Status: "unhealthy", Service: serviceName, Storage: "unreachable"})
			return
		}

		response.WriteJSON(w, http.StatusOK,
			Status{Status: "healthy", Service: serviceName, Storage: "ok"})
	}
}
