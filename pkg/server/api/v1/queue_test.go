package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deckhand-io/deckhand/pkg/jobs"
	"github.com/deckhand-io/deckhand/pkg/server/api"
)

// Mock reporter for testing
type mockReporter struct {
	snapshot jobs.Snapshot
}

func (m *mockReporter) Snapshot(now time.Time) jobs.Snapshot {
	m.snapshot.LastUpdated = now
	return m.snapshot
}

func TestQueueStatusHandler_Success(t *testing.T) {
	reporter := &mockReporter{snapshot: jobs.Snapshot{
		Queue: jobs.QueueStats{
			Active:        2,
			Pending:       5,
			Completed:     40,
			Failed:        3,
			MaxConcurrent: 4,
		},
		Health: jobs.HealthStats{
			Status:        "healthy",
			UptimeSeconds: 3600,
			MemoryUsage:   64 << 20,
		},
		Performance: jobs.PerformanceStats{
			AverageProcessingMs: 4200,
			ThroughputPerHour:   1.8,
			SuccessRate:         93.0,
			ErrorRate:           7.0,
		},
	}}
	deps := &api.Deps{Reporter: reporter, Ready: &atomic.Bool{}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/queue", nil)
	w := httptest.NewRecorder()

	QueueStatusHandler(deps).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var snap jobs.Snapshot
	require.NoError(t, json.NewDecoder(w.Body).Decode(&snap))
	require.Equal(t, 2, snap.Queue.Active)
	require.Equal(t, 5, snap.Queue.Pending)
	require.Equal(t, 4, snap.Queue.MaxConcurrent)
	require.Equal(t, "healthy", snap.Health.Status)
	require.Equal(t, int64(4200), snap.Performance.AverageProcessingMs)
	require.False(t, snap.LastUpdated.IsZero())
}

func TestQueueStatusHandler_EmptyQueue(t *testing.T) {
	deps := &api.Deps{Reporter: &mockReporter{}, Ready: &atomic.Bool{}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/queue", nil)
	w := httptest.NewRecorder()

	QueueStatusHandler(deps).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var snap jobs.Snapshot
	require.NoError(t, json.NewDecoder(w.Body).Decode(&snap))
	require.Equal(t, 0, snap.Queue.Active)
	require.Equal(t, 0, snap.Queue.Pending)
}
