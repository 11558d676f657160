// Package store provides the key/value capability the client uses to persist
// its session token. Backends exist for memory, a JSON file, Redis and SQLite.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Store is a minimal persistent key/value store.
type Store interface {
	// Get returns the value stored at key. found is false when the key has never been set.
	Get(ctx context.Context, key string) (found bool, val any, err error)
	// Set stores val at key, replacing any previous value.
	Set(ctx context.Context, key string, val any) error
	// Close releases any resources held by the store.
	Close() error
}

// DefaultQueryTimeout bounds each operation of the I/O backed stores (Redis, SQLite).
const DefaultQueryTimeout = 5 * time.Second

type config struct {
	queryTimeout time.Duration
	prefix       string
}

// Option configures a Store implementation.
type Option func(*config)

// WithQueryTimeout sets the per-operation timeout for I/O backed stores.
func WithQueryTimeout(d time.Duration) Option {
	return func(c *config) { c.queryTimeout = d }
}

// WithPrefix namespaces keys. Applies to the Redis and SQLite backends.
func WithPrefix(p string) Option {
	return func(c *config) { c.prefix = p }
}

func applyOptions(opts []Option) config {
	cfg := config{queryTimeout: DefaultQueryTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c config) key(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

func (c config) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.queryTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.queryTimeout)
}

// Value retrieves a typed value from the store, returning def when the key is not set.
// In-memory values are type asserted, serialized backends are decoded from msgpack
// and anything else (for example numbers read back from the JSON file store) is
// converted through JSON.
func Value[T any](ctx context.Context, s Store, key string, def T) (T, error) {
	found, val, err := s.Get(ctx, key)
	if err != nil {
		return def, err
	}
	if !found || val == nil {
		return def, nil
	}
	if typed, ok := val.(T); ok {
		return typed, nil
	}
	var result T
	if data, ok := val.([]byte); ok {
		if err := msgpack.Unmarshal(data, &result); err != nil {
			return def, errors.Wrapf(err, "store: decoding %q", key)
		}
		return result, nil
	}
	buf, err := json.Marshal(val)
	if err != nil {
		return def, errors.Wrapf(err, "store: converting %q", key)
	}
	if err := json.Unmarshal(buf, &result); err != nil {
		return def, errors.Newf("store: cannot convert value of type %T to %T", val, result)
	}
	return result, nil
}
