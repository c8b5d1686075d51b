package jobs

import (
	"runtime"
	"time"
)

// reportingWindow is the trailing window for completed/failed counts and
// performance figures.
const reportingWindow = 24 * time.Hour

// QueueStats summarizes the queue for the monitoring endpoint.
type QueueStats struct {
	Active        int `json:"active"`
	Pending       int `json:"pending"`
	Completed     int `json:"completed"`
	Failed        int `json:"failed"`
	MaxConcurrent int `json:"maxConcurrent"`
}

// HealthStats reports process-level health.
type HealthStats struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime"`
	MemoryUsage   uint64 `json:"memoryUsage"`
}

// PerformanceStats carries figures derived from terminal jobs inside the
// trailing window.
type PerformanceStats struct {
	AverageProcessingMs int64   `json:"averageProcessingTime"`
	ThroughputPerHour   float64 `json:"throughputPerHour"`
	SuccessRate         float64 `json:"successRate"`
	ErrorRate           float64 `json:"errorRate"`
}

// Snapshot is the full monitoring payload.
type Snapshot struct {
	Queue       QueueStats       `json:"queue"`
	Health      HealthStats      `json:"health"`
	Performance PerformanceStats `json:"performance"`
	LastUpdated time.Time        `json:"lastUpdated"`
}

// Reporter derives aggregate queue, health and performance metrics from
// store contents. It keeps no bookkeeping of its own: every snapshot is a
// full scan, so figures are always consistent with the store.
type Reporter struct {
	store         *Store
	maxConcurrent int
	startedAt     time.Time
}

// NewReporter creates a reporter over the given store.
func NewReporter(store *Store, maxConcurrent int) *Reporter {
	return &Reporter{
		store:         store,
		maxConcurrent: maxConcurrent,
		startedAt:     time.Now(),
	}
}

// Snapshot computes the monitoring payload as of now.
func (r *Reporter) Snapshot(now time.Time) Snapshot {
	cutoff := now.Add(-reportingWindow)

	var stats QueueStats
	stats.MaxConcurrent = r.maxConcurrent

	var processed int
	var processingTotal time.Duration

	for _, job := range r.store.All() {
		switch job.Status {
		case StatusProcessing:
			stats.Active++
		case StatusPending, StatusQueued:
			stats.Pending++
		case StatusCompleted:
			if job.CompletedAt.After(cutoff) {
				stats.Completed++
				processed++
				processingTotal += job.CompletedAt.Sub(job.StartedAt)
			}
		case StatusFailed:
			if job.CompletedAt.After(cutoff) {
				stats.Failed++
				if !job.StartedAt.IsZero() {
					processed++
					processingTotal += job.CompletedAt.Sub(job.StartedAt)
				}
			}
		}
	}

	var perf PerformanceStats
	if processed > 0 {
		perf.AverageProcessingMs = (processingTotal / time.Duration(processed)).Milliseconds()
	}
	terminal := stats.Completed + stats.Failed
	if terminal > 0 {
		perf.SuccessRate = float64(stats.Completed) / float64(terminal)
		perf.ErrorRate = float64(stats.Failed) / float64(terminal)
	}
	window := now.Sub(r.startedAt)
	if window > reportingWindow {
		window = reportingWindow
	}
	if hours := window.Hours(); hours > 0 {
		perf.ThroughputPerHour = float64(terminal) / hours
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	health := HealthStats{
		Status:        healthStatus(stats),
		UptimeSeconds: int64(now.Sub(r.startedAt).Seconds()),
		MemoryUsage:   mem.Alloc,
	}

	return Snapshot{
		Queue:       stats,
		Health:      health,
		Performance: perf,
		LastUpdated: now,
	}
}

func healthStatus(stats QueueStats) string {
	if stats.Active >= stats.MaxConcurrent && stats.Pending > 0 {
		return "busy"
	}
	return "healthy"
}
