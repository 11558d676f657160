package store

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db   *sql.DB
	cfg  config
	once sync.Once
}

var _ Store = (*sqliteStore)(nil)

// NewSQLite returns a Store backed by SQLite.
// If dbPath is empty or ":memory:", an in-memory database is used.
func NewSQLite(dbPath string, opts ...Option) (Store, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrapf(err, "store: opening %s", dbPath)
	}
	// a single connection keeps ":memory:" databases consistent across queries
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "store: enabling WAL")
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "store: creating table")
	}
	return &sqliteStore{db: db, cfg: applyOptions(opts)}, nil
}

func (s *sqliteStore) Get(ctx context.Context, key string) (bool, any, error) {
	qctx, cancel := s.cfg.queryCtx(ctx)
	defer cancel()
	var data []byte
	err := s.db.QueryRowContext(qctx, `SELECT value FROM kv WHERE key = ?`, s.cfg.key(key)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, errors.Wrapf(err, "store: sqlite get %q", key)
	}
	return true, data, nil
}

func (s *sqliteStore) Set(ctx context.Context, key string, val any) error {
	data, err := msgpack.Marshal(val)
	if err != nil {
		return errors.Wrapf(err, "store: encoding %q", key)
	}
	qctx, cancel := s.cfg.queryCtx(ctx)
	defer cancel()
	_, err = s.db.ExecContext(qctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.cfg.key(key), data, time.Now().UnixNano(),
	)
	if err != nil {
		return errors.Wrapf(err, "store: sqlite set %q", key)
	}
	return nil
}

func (s *sqliteStore) Close() error {
	var err error
	s.once.Do(func() {
		err = s.db.Close()
	})
	return err
}
