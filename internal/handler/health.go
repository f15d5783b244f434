package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// Health handles GET /health. The process is live even when the database is
// down, since scheduling does not depend on it.
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok"}
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			resp.Database = "ok"
			if err := db.Ping(ctx); err != nil {
				resp.Status = "degraded"
				resp.Database = "unreachable"
			}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
