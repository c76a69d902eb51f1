// Package store keeps analysis results and the per-job guard markers
// (in-flight claims and failure cooldowns). Every entry carries an absolute
// expiry and is treated as absent once it has passed.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/spigell/seoul-job-matcher/internal/analysis"
)

const (
	DefaultResultTTL   = 24 * time.Hour
	DefaultInFlightTTL = 5 * time.Minute
	DefaultCooldown    = 60 * time.Second
)

// ErrNotFound is returned by Get when no live result exists for a job.
var ErrNotFound = errors.New("analysis not cached")

// Entry is the persisted shape of a cached result.
type Entry struct {
	JobID     string           `json:"jobId"`
	Result    *analysis.Result `json:"result"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

// Store is the analysis cache and concurrency guard. Keys are job ids.
type Store interface {
	Get(ctx context.Context, jobID string) (*analysis.Result, error)
	Put(ctx context.Context, jobID string, result *analysis.Result, ttl time.Duration) error
	// Update replaces a live result and keeps its expiry. It returns ErrNotFound
	// when no live entry exists.
	Update(ctx context.Context, jobID string, result *analysis.Result) error
	Remove(ctx context.Context, jobID string) error

	// ClaimInFlight atomically marks the job as being analysed. It returns false
	// when another live claim exists.
	ClaimInFlight(ctx context.Context, jobID string, ttl time.Duration) (bool, error)
	ClearInFlight(ctx context.Context, jobID string) error
	IsInFlight(ctx context.Context, jobID string) (bool, error)

	MarkFailed(ctx context.Context, jobID string, window time.Duration) error
	IsInCooldown(ctx context.Context, jobID string) (bool, error)
	ClearFailed(ctx context.Context, jobID string) error

	Close() error
}

// Clock returns the current time. Stores take one so expiry can be tested.
type Clock func() time.Time

func orNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
