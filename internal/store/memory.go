package store

import (
	"context"
	"sync"
	"time"

	"github.com/spigell/seoul-job-matcher/internal/analysis"
)

type memoryEntry struct {
	result    *analysis.Result
	expiresAt time.Time
}

// Memory is a process-local Store.
type Memory struct {
	mu       sync.Mutex
	now      Clock
	results  map[string]memoryEntry
	inFlight map[string]time.Time
	failed   map[string]time.Time
}

var _ Store = (*Memory)(nil)

func NewMemory(now Clock) *Memory {
	return &Memory{
		now:      orNow(now),
		results:  make(map[string]memoryEntry),
		inFlight: make(map[string]time.Time),
		failed:   make(map[string]time.Time),
	}
}

func (m *Memory) Get(_ context.Context, jobID string) (*analysis.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.results[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.results, jobID)
		return nil, ErrNotFound
	}
	return e.result.Clone(), nil
}

func (m *Memory) Put(_ context.Context, jobID string, result *analysis.Result, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.results[jobID] = memoryEntry{
		result:    result.Clone(),
		expiresAt: m.now().Add(orDefault(ttl, DefaultResultTTL)),
	}
	return nil
}

func (m *Memory) Update(_ context.Context, jobID string, result *analysis.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.results[jobID]
	if !ok || !m.now().Before(e.expiresAt) {
		delete(m.results, jobID)
		return ErrNotFound
	}
	e.result = result.Clone()
	m.results[jobID] = e
	return nil
}

func (m *Memory) Remove(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.results, jobID)
	return nil
}

func (m *Memory) ClaimInFlight(_ context.Context, jobID string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.live(m.inFlight, jobID, now) {
		return false, nil
	}
	m.inFlight[jobID] = now.Add(orDefault(ttl, DefaultInFlightTTL))
	return true, nil
}

func (m *Memory) ClearInFlight(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, jobID)
	return nil
}

func (m *Memory) IsInFlight(_ context.Context, jobID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live(m.inFlight, jobID, m.now()), nil
}

func (m *Memory) MarkFailed(_ context.Context, jobID string, window time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed[jobID] = m.now().Add(orDefault(window, DefaultCooldown))
	return nil
}

func (m *Memory) IsInCooldown(_ context.Context, jobID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live(m.failed, jobID, m.now()), nil
}

func (m *Memory) ClearFailed(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failed, jobID)
	return nil
}

func (m *Memory) Close() error { return nil }

// live reports whether markers[jobID] has not expired, dropping it if it has.
// Callers hold m.mu.
func (m *Memory) live(markers map[string]time.Time, jobID string, now time.Time) bool {
	expiresAt, ok := markers[jobID]
	if !ok {
		return false
	}
	if !now.Before(expiresAt) {
		delete(markers, jobID)
		return false
	}
	return true
}
