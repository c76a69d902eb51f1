package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spigell/seoul-job-matcher/internal/analysis"
)

const defaultRedisPrefix = "jobmatch"

// Redis is a Store shared by every instance pointing at the same server.
// Keys expire natively; the stored expiry is checked again on read.
type Redis struct {
	client *redis.Client
	prefix string
	now    Clock
}

var _ Store = (*Redis)(nil)

func NewRedis(client *redis.Client, prefix string, now Clock) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix, now: orNow(now)}
}

// OpenRedis connects to redisURL and verifies the server answers.
func OpenRedis(ctx context.Context, redisURL, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedis(client, prefix, nil), nil
}

func (r *Redis) resultKey(jobID string) string   { return r.prefix + ":analysis:" + jobID }
func (r *Redis) inFlightKey(jobID string) string { return r.prefix + ":inflight:" + jobID }
func (r *Redis) failedKey(jobID string) string   { return r.prefix + ":cooldown:" + jobID }

func (r *Redis) Get(ctx context.Context, jobID string) (*analysis.Result, error) {
	entry, err := r.entry(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return entry.Result, nil
}

// Update rewrites the entry only while the key exists (XX) and keeps its TTL.
func (r *Redis) Update(ctx context.Context, jobID string, result *analysis.Result) error {
	entry, err := r.entry(ctx, jobID)
	if err != nil {
		return err
	}

	entry.Result = result
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode analysis %s: %w", jobID, err)
	}

	err = r.client.SetArgs(ctx, r.resultKey(jobID), b, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("redis set %s: %w", jobID, err)
	}
	return nil
}

func (r *Redis) entry(ctx context.Context, jobID string) (*Entry, error) {
	b, err := r.client.Get(ctx, r.resultKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", jobID, err)
	}

	var entry Entry
	if err := json.Unmarshal(b, &entry); err != nil {
		return nil, fmt.Errorf("decode cached analysis %s: %w", jobID, err)
	}
	if entry.Result == nil || !r.now().Before(entry.ExpiresAt) {
		return nil, ErrNotFound
	}
	return &entry, nil
}

func (r *Redis) Put(ctx context.Context, jobID string, result *analysis.Result, ttl time.Duration) error {
	ttl = orDefault(ttl, DefaultResultTTL)
	b, err := json.Marshal(Entry{JobID: jobID, Result: result, ExpiresAt: r.now().Add(ttl)})
	if err != nil {
		return fmt.Errorf("encode analysis %s: %w", jobID, err)
	}
	if err := r.client.Set(ctx, r.resultKey(jobID), b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", jobID, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, jobID string) error {
	return r.del(ctx, r.resultKey(jobID))
}

func (r *Redis) ClaimInFlight(ctx context.Context, jobID string, ttl time.Duration) (bool, error) {
	ttl = orDefault(ttl, DefaultInFlightTTL)
	ok, err := r.client.SetNX(ctx, r.inFlightKey(jobID), r.expiry(ttl), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis claim %s: %w", jobID, err)
	}
	return ok, nil
}

func (r *Redis) ClearInFlight(ctx context.Context, jobID string) error {
	return r.del(ctx, r.inFlightKey(jobID))
}

func (r *Redis) IsInFlight(ctx context.Context, jobID string) (bool, error) {
	return r.marker(ctx, r.inFlightKey(jobID))
}

func (r *Redis) MarkFailed(ctx context.Context, jobID string, window time.Duration) error {
	window = orDefault(window, DefaultCooldown)
	if err := r.client.Set(ctx, r.failedKey(jobID), r.expiry(window), window).Err(); err != nil {
		return fmt.Errorf("redis mark failed %s: %w", jobID, err)
	}
	return nil
}

func (r *Redis) IsInCooldown(ctx context.Context, jobID string) (bool, error) {
	return r.marker(ctx, r.failedKey(jobID))
}

func (r *Redis) ClearFailed(ctx context.Context, jobID string) error {
	return r.del(ctx, r.failedKey(jobID))
}

func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) expiry(ttl time.Duration) string {
	return strconv.FormatInt(r.now().Add(ttl).UnixMilli(), 10)
}

func (r *Redis) marker(ctx context.Context, key string) (bool, error) {
	raw, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("decode marker %s: %w", key, err)
	}
	return r.now().Before(time.UnixMilli(ms)), nil
}

func (r *Redis) del(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
