// Package store persists session snapshots in Redis so a client can resume
// a match after restart.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/park285/cheese-board/internal/turn"
	"github.com/park285/cheese-board/pkg/boarddto"
)

const defaultTTL = 24 * time.Hour

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ turn.Recorder = (*Store)(nil)

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Open parses a redis:// URL and pings the server.
func Open(ctx context.Context, redisURL string, ttl time.Duration) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, errors.New("REDIS_URL is required for the session store")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewStore(rdb, ttl), nil
}

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *Store) keySession(id string) string { return "board:session:" + strings.TrimSpace(id) }
func (s *Store) keyIndex() string            { return "board:sessions" }

// Save writes the snapshot and refreshes its TTL.
func (s *Store) Save(ctx context.Context, snap turn.Snapshot) error {
	if strings.TrimSpace(snap.SessionID) == "" {
		return errors.New("snapshot without session id")
	}
	raw, err := json.Marshal(snap.ToDTO(nil))
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.keySession(snap.SessionID), raw, s.ttl)
	pipe.ZAdd(ctx, s.keyIndex(), redis.Z{Score: float64(snap.UpdatedAt.Unix()), Member: snap.SessionID})
	pipe.Expire(ctx, s.keyIndex(), s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Load returns nil, nil when the session is unknown or expired.
func (s *Store) Load(ctx context.Context, id string) (*turn.Snapshot, error) {
	raw, err := s.rdb.Get(ctx, s.keySession(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var dto boarddto.Snapshot
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	snap, err := turn.SnapshotFromDTO(dto)
	if err != nil {
		return nil, fmt.Errorf("restore snapshot %s: %w", id, err)
	}
	return &snap, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.keySession(id))
	pipe.ZRem(ctx, s.keyIndex(), id)
	_, err := pipe.Exec(ctx)
	return err
}

// Recent lists session ids, most recently updated first. Expired entries are
// pruned from the index as they are found.
func (s *Store) Recent(ctx context.Context, limit int64) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	ids, err := s.rdb.ZRevRange(ctx, s.keyIndex(), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		n, err := s.rdb.Exists(ctx, s.keySession(id)).Result()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			_ = s.rdb.ZRem(ctx, s.keyIndex(), id).Err()
			continue
		}
		out = append(out, id)
	}
	return out, nil
}
