package workers

import (
	"time"
)

// Metrics returns the current pool metrics.
func (p *WorkerPool) Metrics() PoolMetrics {
	p.metricsMu.RLock()
	defer p.metricsMu.RUnlock()
	return p.metrics
}

// incrementSubmitted increments the submitted task counter.
func (p *WorkerPool) incrementSubmitted() {
	p.metricsMu.Lock()
	defer p.metricsMu.Unlock()
	p.metrics.TasksSubmitted++
}

// incrementCompleted increments the completed task counter.
func (p *WorkerPool) incrementCompleted() {
	p.metricsMu.Lock()
	defer p.metricsMu.Unlock()
	p.metrics.TasksCompleted++
}

// incrementFailed increments the failed task counter.
func (p *WorkerPool) incrementFailed() {
	p.metricsMu.Lock()
	defer p.metricsMu.Unlock()
	p.metrics.TasksFailed++
}

// recordDuration records task execution duration.
func (p *WorkerPool) recordDuration(d time.Duration) {
	p.metricsMu.Lock()
	defer p.metricsMu.Unlock()
	p.metrics.TotalDuration += d
}
