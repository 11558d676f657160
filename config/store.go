package config

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/tvremote/go-tizenws/store"
)

// OpenStore builds the token store selected by store.kind
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.Store.Kind {
	case "", StoreMemory:
		return store.NewMemory(), nil
	case StoreFile:
		return store.NewFile(cfg.Store.Path), nil
	case StoreSQLite:
		return store.NewSQLite(cfg.Store.Path, store.WithPrefix(cfg.Store.Prefix))
	case StoreRedis:
		opts, err := redis.ParseURL(cfg.Store.RedisURL)
		if err != nil {
			return nil, errors.Wrap(err, "parsing store.redis_url")
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, errors.Wrap(err, "connecting to redis")
		}
		return &ownedStore{Store: store.NewRedis(client, store.WithPrefix(cfg.Store.Prefix)), release: client.Close}, nil
	default:
		return nil, errors.Newf("unsupported store.kind %q", cfg.Store.Kind)
	}
}

// ownedStore also releases the client it was built on
type ownedStore struct {
	store.Store
	release func() error
}

func (s *ownedStore) Close() error {
	return errors.CombineErrors(s.Store.Close(), s.release())
}
