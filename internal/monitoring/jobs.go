package monitoring

import (
	"sort"
	"sync"
	"time"

	"github.com/charlesng35/authcore/pkg/metrics"
)

// JobStatus summarises the run history of one background job.
type JobStatus struct {
	Job                 string        `json:"job"`
	TotalRuns           uint64        `json:"total_runs"`
	ConsecutiveFailures uint64        `json:"consecutive_failures"`
	LastRunAt           time.Time     `json:"last_run_at"`
	LastDuration        time.Duration `json:"last_duration"`
	LastError           string        `json:"last_error,omitempty"`
}

// JobTracker records background job outcomes for health reporting.
type JobTracker struct {
	mu   sync.RWMutex
	jobs map[string]*JobStatus
}

// NewJobTracker returns an empty tracker.
func NewJobTracker() *JobTracker {
	return &JobTracker{jobs: make(map[string]*JobStatus)}
}

// Register makes a job visible before its first run.
func (t *JobTracker) Register(job string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.jobs[job]; !ok {
		t.jobs[job] = &JobStatus{Job: job}
	}
}

// Record stores the outcome of a run finished at finishedAt.
func (t *JobTracker) Record(job string, finishedAt time.Time, duration time.Duration, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, ok := t.jobs[job]
	if !ok {
		status = &JobStatus{Job: job}
		t.jobs[job] = status
	}
	status.TotalRuns++
	status.LastRunAt = finishedAt
	status.LastDuration = duration

	result := "success"
	if err != nil {
		result = "failure"
		status.ConsecutiveFailures++
		status.LastError = err.Error()
	} else {
		status.ConsecutiveFailures = 0
		status.LastError = ""
	}
	metrics.MaintenanceRuns.WithLabelValues(job, result).Inc()
}

// Snapshot returns a copy of every job status ordered by name.
func (t *JobTracker) Snapshot() []JobStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]JobStatus, 0, len(t.jobs))
	for _, status := range t.jobs {
		out = append(out, *status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out
}
