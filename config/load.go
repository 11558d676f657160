package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flag names bound onto configuration keys
var flagKeys = map[string]string{
	"host":       "host",
	"port":       "port",
	"name":       "name",
	"log-level":  "log_level",
	"store":      "store.kind",
	"store-path": "store.path",
	"redis-url":  "store.redis_url",
}

// Load reads configuration from the yaml file at path, then applies TIZENWS_*
// environment overrides and any of the flags that were set. An empty path skips
// the file. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("name", cfg.Name)
	v.SetDefault("key_press_delay", cfg.KeyPressDelay)
	v.SetDefault("heartbeat_interval", cfg.HeartbeatInterval)
	v.SetDefault("query_interval", cfg.QueryInterval)
	v.SetDefault("ignore_apps", cfg.IgnoreApps)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("backoff.base", cfg.Backoff.Base)
	v.SetDefault("backoff.max", cfg.Backoff.Max)
	v.SetDefault("backoff.max_failures", cfg.Backoff.MaxFailures)
	v.SetDefault("store.kind", cfg.Store.Kind)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("store.redis_url", cfg.Store.RedisURL)
	v.SetDefault("store.prefix", cfg.Store.Prefix)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(expandEnv(path))
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "reading config %s", path)
		}
	}

	// only flags given on the command line win, their defaults would shadow the file
	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				v.Set(key, f.Value.String())
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding config")
	}
	cfg.Store.Path = expandEnv(cfg.Store.Path)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	if strings.HasPrefix(value, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			value = home + value[1:]
		}
	}
	return os.Expand(value, func(key string) string {
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}
