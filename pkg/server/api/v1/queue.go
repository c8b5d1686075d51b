package v1

import (
	"net/http"
	"time"

	"github.com/deckhand-io/deckhand/pkg/server/api"
)

// QueueStatusHandler handles GET /api/v1/queue
//
// Returns the combined queue, health and performance snapshot:
//
//	{
//	  "queue": {"active": 2, "pending": 5, "completed": 120, "failed": 3, "maxConcurrent": 4},
//	  "health": {"status": "healthy", "uptime": 86400, "memoryUsage": 52428800},
//	  "performance": {"averageProcessingTime": 4200, "throughputPerHour": 5.1,
//	                  "successRate": 0.97, "errorRate": 0.03},
//	  "lastUpdated": "2025-08-31T12:00:00Z"
//	}
//
// Completed/failed counts and performance figures cover a trailing
// 24 hour window.
func QueueStatusHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, http.StatusOK, deps.Reporter.Snapshot(time.Now()))
	}
}
