// Package jobs runs the per-transfer background work: settlement
// progress notifications and quote rate refreshes.
package jobs

import (
	"context"
	"sync"

	"github.com/surgepay/surgepay/internal/metrics"
)

type job struct {
	cancel context.CancelFunc
}

// Registry tracks running jobs by ID so conversations can stop the
// jobs they started. Starting a job under an ID that is already
// running cancels the old one first.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*job
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*job)}
}

// Start runs fn in a goroutine under the given ID. The context passed
// to fn is cancelled by Stop, StopAll, or a replacement Start. The job
// deregisters itself when fn returns.
func (r *Registry) Start(id string, fn func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{cancel: cancel}

	r.mu.Lock()
	if old, ok := r.jobs[id]; ok {
		old.cancel()
	}
	r.jobs[id] = j
	r.mu.Unlock()
	metrics.ActiveJobs.Inc()

	go func() {
		defer func() {
			cancel()
			r.mu.Lock()
			// A replacement Start may have taken the slot already.
			if r.jobs[id] == j {
				delete(r.jobs, id)
			}
			r.mu.Unlock()
			metrics.ActiveJobs.Dec()
		}()
		fn(ctx)
	}()
}

// Stop cancels the job registered under id, if any.
func (r *Registry) Stop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		j.cancel()
		delete(r.jobs, id)
	}
}

// StopAll cancels every running job. Used during shutdown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, j := range r.jobs {
		j.cancel()
		delete(r.jobs, id)
	}
}

// Count returns the number of registered jobs.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}
