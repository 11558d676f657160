// Package config loads the settings of a TV client from a yaml file, the
// environment and command line flags.
package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tvremote/go-tizenws/logger"
	"github.com/tvremote/go-tizenws/resilience"
	"github.com/tvremote/go-tizenws/tizen"
)

// EnvPrefix is the prefix of environment overrides, TIZENWS_HOST for host and TIZENWS_BACKOFF_BASE for backoff.base
const EnvPrefix = "TIZENWS"

const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

type Config struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	Name              string        `mapstructure:"name"`
	KeyPressDelay     time.Duration `mapstructure:"key_press_delay"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	QueryInterval     time.Duration `mapstructure:"query_interval"`
	IgnoreApps        []string      `mapstructure:"ignore_apps"`
	LogLevel          string        `mapstructure:"log_level"`
	Backoff           BackoffConfig `mapstructure:"backoff"`
	Store             StoreConfig   `mapstructure:"store"`
}

type BackoffConfig struct {
	Base        time.Duration `mapstructure:"base"`
	Max         time.Duration `mapstructure:"max"`
	MaxFailures int           `mapstructure:"max_failures"`
}

type StoreConfig struct {
	Kind     string `mapstructure:"kind"`
	Path     string `mapstructure:"path"`
	RedisURL string `mapstructure:"redis_url"`
	Prefix   string `mapstructure:"prefix"`
}

// DefaultConfig returns the settings used when nothing overrides them
func DefaultConfig() Config {
	backoff := resilience.DefaultBackoffConfig()
	return Config{
		Port:              tizen.DefaultPort,
		Name:              tizen.DefaultName,
		KeyPressDelay:     tizen.DefaultKeyPressDelay,
		HeartbeatInterval: tizen.DefaultHeartbeatInterval,
		QueryInterval:     tizen.DefaultQueryInterval,
		LogLevel:          "info",
		Backoff: BackoffConfig{
			Base: backoff.Base,
			Max:  backoff.Max,
		},
		Store: StoreConfig{
			Kind:   StoreMemory,
			Prefix: "tizenws",
		},
	}
}

// Validate checks the settings a client cannot start without
func (c Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return errors.New("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Newf("port %d out of range", c.Port)
	}
	if c.Backoff.Base <= 0 {
		return errors.New("backoff.base must be positive")
	}
	if c.Backoff.Max < c.Backoff.Base {
		return errors.New("backoff.max must not be less than backoff.base")
	}
	if c.Backoff.MaxFailures < 0 {
		return errors.New("backoff.max_failures must not be negative")
	}
	if c.QueryInterval < 0 {
		return errors.New("query_interval must not be negative")
	}
	switch c.Store.Kind {
	case StoreMemory:
	case StoreFile, StoreSQLite:
		if c.Store.Path == "" {
			return errors.Newf("store.path is required for the %s store", c.Store.Kind)
		}
	case StoreRedis:
		if c.Store.RedisURL == "" {
			return errors.New("store.redis_url is required for the redis store")
		}
	default:
		return errors.Newf("unsupported store.kind %q", c.Store.Kind)
	}
	return nil
}

// Level returns the configured log level
func (c Config) Level() logger.LogLevel {
	return logger.ParseLevel(c.LogLevel, logger.LevelInfo)
}

// ClientOptions maps the settings onto client options. Store, Logger and Handler are left for the caller.
func (c Config) ClientOptions() tizen.Options {
	keyDelay := c.KeyPressDelay
	if keyDelay == 0 {
		// zero in a config file means no pause, the client reads zero as the default
		keyDelay = -1
	}
	return tizen.Options{
		Host:              c.Host,
		Port:              c.Port,
		Name:              c.Name,
		KeyPressDelay:     keyDelay,
		QueryInterval:     c.QueryInterval,
		HeartbeatInterval: c.HeartbeatInterval,
		IgnoreApps:        c.IgnoreApps,
		Backoff: resilience.BackoffConfig{
			Base:        c.Backoff.Base,
			Max:         c.Backoff.Max,
			MaxFailures: c.Backoff.MaxFailures,
		},
	}
}
