package store

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

type redisStore struct {
	client *redis.Client
	cfg    config
}

var _ Store = (*redisStore)(nil)

// NewRedis returns a Store backed by Redis. Values never expire.
// The caller owns the redis.Client, Close leaves it open.
func NewRedis(client *redis.Client, opts ...Option) Store {
	return &redisStore{client: client, cfg: applyOptions(opts)}
}

func (s *redisStore) Get(ctx context.Context, key string) (bool, any, error) {
	qctx, cancel := s.cfg.queryCtx(ctx)
	defer cancel()
	data, err := s.client.Get(qctx, s.cfg.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, errors.Wrapf(err, "store: redis get %q", key)
	}
	return true, data, nil
}

func (s *redisStore) Set(ctx context.Context, key string, val any) error {
	data, err := msgpack.Marshal(val)
	if err != nil {
		return errors.Wrapf(err, "store: encoding %q", key)
	}
	qctx, cancel := s.cfg.queryCtx(ctx)
	defer cancel()
	if err := s.client.Set(qctx, s.cfg.key(key), data, 0).Err(); err != nil {
		return errors.Wrapf(err, "store: redis set %q", key)
	}
	return nil
}

// Close is a no-op: the caller owns the redis.Client lifecycle.
func (s *redisStore) Close() error {
	return nil
}
