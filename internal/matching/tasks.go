package matching

import (
	"context"
	"sync"
)

// task is one detached extraction. done is closed once outcome is set.
type task struct {
	cancel  context.CancelFunc
	done    chan struct{}
	outcome Outcome
}

// registry tracks running extractions by job id so they can be cancelled.
type registry struct {
	mu    sync.Mutex
	tasks map[string]*task
}

func newRegistry() *registry {
	return &registry{tasks: make(map[string]*task)}
}

func (r *registry) add(jobID string, t *task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[jobID] = t
}

// remove drops t if it is still the registered task for jobID.
func (r *registry) remove(jobID string, t *task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tasks[jobID] == t {
		delete(r.tasks, jobID)
	}
}

func (r *registry) cancel(jobID string) bool {
	r.mu.Lock()
	t, ok := r.tasks[jobID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	t.cancel()
	return true
}

func (r *registry) running(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tasks[jobID]
	return ok
}
