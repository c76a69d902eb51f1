package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spigell/seoul-job-matcher/internal/analysis"
)

const (
	markerInFlight = "in_flight"
	markerFailed   = "failed"
)

// SQL is a Store on the analysis_cache and analysis_markers tables.
// Queries are portable between postgres and sqlite. Timestamps are unix milliseconds.
type SQL struct {
	db  *sql.DB
	now Clock
}

var _ Store = (*SQL)(nil)

func NewSQL(db *sql.DB, now Clock) *SQL {
	return &SQL{db: db, now: orNow(now)}
}

func (s *SQL) Get(ctx context.Context, jobID string) (*analysis.Result, error) {
	var (
		payload   string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT result, expires_at FROM analysis_cache WHERE job_id = $1`, jobID,
	).Scan(&payload, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select cached analysis %s: %w", jobID, err)
	}

	if s.now().UnixMilli() >= expiresAt {
		return nil, ErrNotFound
	}

	var result analysis.Result
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("decode cached analysis %s: %w", jobID, err)
	}
	return &result, nil
}

func (s *SQL) Put(ctx context.Context, jobID string, result *analysis.Result, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode analysis %s: %w", jobID, err)
	}

	expiresAt := s.now().Add(orDefault(ttl, DefaultResultTTL)).UnixMilli()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analysis_cache (job_id, result, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (job_id) DO UPDATE SET result = excluded.result, expires_at = excluded.expires_at`,
		jobID, string(payload), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("upsert cached analysis %s: %w", jobID, err)
	}
	return nil
}

func (s *SQL) Update(ctx context.Context, jobID string, result *analysis.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode analysis %s: %w", jobID, err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE analysis_cache SET result = $2 WHERE job_id = $1 AND expires_at > $3`,
		jobID, string(payload), s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("update cached analysis %s: %w", jobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update cached analysis %s: %w", jobID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQL) Remove(ctx context.Context, jobID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM analysis_cache WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("delete cached analysis %s: %w", jobID, err)
	}
	return nil
}

// ClaimInFlight inserts the marker or takes over an expired one in a single statement.
func (s *SQL) ClaimInFlight(ctx context.Context, jobID string, ttl time.Duration) (bool, error) {
	now := s.now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis_markers (job_id, kind, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (job_id, kind) DO UPDATE SET expires_at = excluded.expires_at
		 WHERE analysis_markers.expires_at <= $4`,
		jobID, markerInFlight, now.Add(orDefault(ttl, DefaultInFlightTTL)).UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", jobID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", jobID, err)
	}
	return n > 0, nil
}

func (s *SQL) ClearInFlight(ctx context.Context, jobID string) error {
	return s.clearMarker(ctx, jobID, markerInFlight)
}

func (s *SQL) IsInFlight(ctx context.Context, jobID string) (bool, error) {
	return s.marker(ctx, jobID, markerInFlight)
}

func (s *SQL) MarkFailed(ctx context.Context, jobID string, window time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis_markers (job_id, kind, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (job_id, kind) DO UPDATE SET expires_at = excluded.expires_at`,
		jobID, markerFailed, s.now().Add(orDefault(window, DefaultCooldown)).UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("mark failed %s: %w", jobID, err)
	}
	return nil
}

func (s *SQL) IsInCooldown(ctx context.Context, jobID string) (bool, error) {
	return s.marker(ctx, jobID, markerFailed)
}

func (s *SQL) ClearFailed(ctx context.Context, jobID string) error {
	return s.clearMarker(ctx, jobID, markerFailed)
}

// Close is a no-op; the *sql.DB is owned by the caller.
func (s *SQL) Close() error { return nil }

func (s *SQL) marker(ctx context.Context, jobID, kind string) (bool, error) {
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT expires_at FROM analysis_markers WHERE job_id = $1 AND kind = $2`, jobID, kind,
	).Scan(&expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("select %s marker %s: %w", kind, jobID, err)
	}
	return s.now().UnixMilli() < expiresAt, nil
}

func (s *SQL) clearMarker(ctx context.Context, jobID, kind string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM analysis_markers WHERE job_id = $1 AND kind = $2`, jobID, kind,
	)
	if err != nil {
		return fmt.Errorf("clear %s marker %s: %w", kind, jobID, err)
	}
	return nil
}
