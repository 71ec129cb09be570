package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dockopt/dockopt-backend/internal/optimizer/domain"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix      = "dockopt:"  // dockopt:{instance}:...
	sessionKeyPart = ":session:" // dockopt:{instance}:session:{id} -> hash
	indexKeyPart   = ":sessions" // dockopt:{instance}:sessions -> set of ids

	fieldRaw       = "raw"
	fieldOptimized = "optimized"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
)

// RedisStore keeps sessions in Redis under a per-process namespace. Close
// deletes the namespace, so sessions never outlive the process that made them.
type RedisStore struct {
	client   *redis.Client
	instance string
	ttl      time.Duration
	now      func() time.Time
}

// NewRedisStore creates a RedisStore. instanceID must be unique per process.
// ttl applies to every key and only matters if a process dies without Close:
// a running process keeps its keys alive through Refresh.
func NewRedisStore(client *redis.Client, instanceID string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:   client,
		instance: instanceID,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *RedisStore) Put(ctx context.Context, id, raw string) error {
	now := r.now().UTC().Format(time.RFC3339Nano)
	key := r.sessionKey(id)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldRaw, raw,
			fieldCreatedAt, now,
			fieldUpdatedAt, now,
		)
		pipe.SAdd(ctx, r.indexKey(), id)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
			pipe.Expire(ctx, r.indexKey(), r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to put session: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	fields, err := r.client.HGetAll(ctx, r.sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	raw, ok := fields[fieldRaw]
	if !ok {
		if err := r.client.SRem(ctx, r.indexKey(), id).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune session index: %w", err)
		}
		return nil, domain.ErrSessionNotFound
	}

	sess := &domain.Session{ID: id, Raw: raw}
	if opt, ok := fields[fieldOptimized]; ok {
		sess.Optimized = &opt
	}
	// Timestamps are informational; a malformed value leaves the field zero.
	if ts, err := time.Parse(time.RFC3339Nano, fields[fieldCreatedAt]); err == nil {
		sess.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, fields[fieldUpdatedAt]); err == nil {
		sess.UpdatedAt = ts
	}

	if r.ttl > 0 {
		pipe := r.client.Pipeline()
		pipe.Expire(ctx, r.sessionKey(id), r.ttl)
		pipe.Expire(ctx, r.indexKey(), r.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to refresh session ttl: %w", err)
		}
	}

	return sess, nil
}

func (r *RedisStore) SetOptimized(ctx context.Context, id, optimized string) error {
	key := r.sessionKey(id)

	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if n == 0 {
		_ = r.client.SRem(ctx, r.indexKey(), id).Err()
		return domain.ErrSessionNotFound
	}

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key,
		fieldOptimized, optimized,
		fieldUpdatedAt, r.now().UTC().Format(time.RFC3339Nano),
	)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
		pipe.Expire(ctx, r.indexKey(), r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set optimized text: %w", err)
	}
	return nil
}

// Count returns the number of live sessions. Index entries whose hash is
// gone are removed on the way.
func (r *RedisStore) Count(ctx context.Context) (int, error) {
	live, err := r.liveSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return len(live), nil
}

// Refresh resets the TTL of every live session and of the index. A running
// process calls it periodically so that no session expires while it is up.
func (r *RedisStore) Refresh(ctx context.Context) error {
	if r.ttl <= 0 {
		return nil
	}

	live, err := r.liveSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh sessions: %w", err)
	}

	pipe := r.client.Pipeline()
	for _, id := range live {
		pipe.Expire(ctx, r.sessionKey(id), r.ttl)
	}
	pipe.Expire(ctx, r.indexKey(), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to refresh sessions: %w", err)
	}
	return nil
}

// liveSessions lists indexed ids that still have a hash and prunes the rest.
func (r *RedisStore) liveSessions(ctx context.Context) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := r.client.Pipeline()
	exists := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		exists[i] = pipe.Exists(ctx, r.sessionKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	live := make([]string, 0, len(ids))
	var dead []any
	for i, id := range ids {
		if exists[i].Val() > 0 {
			live = append(live, id)
		} else {
			dead = append(dead, id)
		}
	}
	if len(dead) > 0 {
		if err := r.client.SRem(ctx, r.indexKey(), dead...).Err(); err != nil {
			return nil, err
		}
	}
	return live, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close removes every session of this instance. The client stays open.
func (r *RedisStore) Close(ctx context.Context) error {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, r.sessionKey(id))
	}
	keys = append(keys, r.indexKey())

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to purge sessions: %w", err)
	}
	return nil
}

func (r *RedisStore) sessionKey(id string) string {
	return keyPrefix + r.instance + sessionKeyPart + id
}

func (r *RedisStore) indexKey() string {
	return keyPrefix + r.instance + indexKeyPart
}
