package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/parks/internal/model"
	"github.com/sakif/parks/internal/repository"
)

var _ repository.SessionRepository = (*RedisStore)(nil)

// RedisStore keeps sessions in redis, one JSON value per key. Redis
// expires the keys itself, so there is nothing to purge.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// RedisOptions mirrors the handful of redis.Options we expose in config.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects and pings the server so a bad address fails at
// startup rather than on the first request.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("session/redis: ping %s: %w", opts.Addr, err)
	}
	return &RedisStore{rdb: rdb, prefix: "parks:session:"}, nil
}

func (s *RedisStore) key(id string) string { return s.prefix + id }

func (s *RedisStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	data, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session/redis: get: %w", err)
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session/redis: decoding: %w", err)
	}
	sess.ID = id
	return &sess, nil
}

func (s *RedisStore) SaveSession(ctx context.Context, sess *model.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session/redis: encoding: %w", err)
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return s.DeleteSession(ctx, sess.ID)
	}
	if err := s.rdb.Set(ctx, s.key(sess.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("session/redis: set: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteSession(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("session/redis: del: %w", err)
	}
	return nil
}

// DeleteExpiredSessions is a no-op: redis drops expired keys on its own.
func (s *RedisStore) DeleteExpiredSessions(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
