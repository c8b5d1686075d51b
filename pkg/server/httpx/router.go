package httpx

import (
	"net/http"

	"github.com/deckhand-io/deckhand/pkg/config"
	"github.com/deckhand-io/deckhand/pkg/server/api"
	v1 "github.com/deckhand-io/deckhand/pkg/server/api/v1"
)

// NewRouter creates and configures the main HTTP router.
// It mounts health endpoints and the extraction API based on the configuration.
//
// The router uses Go 1.22+ enhanced pattern matching for cleaner routes.
// API routes are mounted conditionally based on cfg.APIEnabled.
//
// Health endpoints are always enabled for liveness/readiness checks.
func NewRouter(cfg config.ServerConfig, deps *api.Deps, apiCfg api.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Health endpoints (always enabled)
	mux.HandleFunc("GET /healthz", HealthzHandler)
	mux.HandleFunc("GET /readyz", v1.ReadyzHandler(deps.Ready))

	// API endpoints (conditional)
	if cfg.APIEnabled {
		mux.HandleFunc("POST /api/v1/extract/assets", v1.SubmitAssetsHandler(deps, apiCfg))
		mux.HandleFunc("POST /api/v1/extract/metadata", v1.SubmitMetadataHandler(deps, apiCfg))
		mux.HandleFunc("GET /api/v1/jobs", v1.ListJobsHandler(deps))
		mux.HandleFunc("GET /api/v1/jobs/{id}", v1.GetJobHandler(deps))
		mux.HandleFunc("DELETE /api/v1/jobs/{id}", v1.CancelJobHandler(deps))
		mux.HandleFunc("GET /api/v1/queue", v1.QueueStatusHandler(deps))
	}

	return mux
}

// HealthzHandler responds with 200 OK if the server process is alive.
// This endpoint is used by load balancers and orchestrators for liveness checks.
//
// It does not check dependencies (queue, spool, etc.) - just process health.
// For comprehensive readiness checks, use /readyz instead.
func HealthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
