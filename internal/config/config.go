// Package config loads filtersql settings from a YAML file, FILTERSQL_*
// environment variables, and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/filtersql/internal/queryir"
	"github.com/roach88/filtersql/internal/querysql"
	"github.com/roach88/filtersql/internal/store"
)

// EnvPrefix prefixes environment overrides: FILTERSQL_DIALECT,
// FILTERSQL_SQLITE_PATH, FILTERSQL_POSTGRES_DSN, ...
const EnvPrefix = "FILTERSQL"

// Config holds all application configuration.
type Config struct {
	Dialect   string         `mapstructure:"dialect"`
	Column    string         `mapstructure:"column"`
	MaxDepth  int            `mapstructure:"max_depth"`
	CacheSize int            `mapstructure:"cache_size"`
	SQLite    SQLiteConfig   `mapstructure:"sqlite"`
	Postgres  PostgresConfig `mapstructure:"postgres"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type PostgresConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"dialect":   "dialect",
	"column":    "column",
	"max-depth": "max_depth",
	"db":        "sqlite.path",
	"dsn":       "postgres.dsn",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dialect", "embedded")
	v.SetDefault("column", querysql.DefaultColumn)
	v.SetDefault("max_depth", 0)
	v.SetDefault("cache_size", store.DefaultCacheSize)
	v.SetDefault("sqlite.path", "filtersql.db")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.table", "documents")
}

// Load reads configuration. path names an explicit config file; when empty,
// filtersql.yaml is looked up in the current directory and its absence is
// not an error. flags, when non-nil, override file and environment values
// for any flag the user actually set.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("filtersql")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if _, err := querysql.DialectFor(c.Dialect); err != nil {
		return fmt.Errorf("config dialect: %w", err)
	}
	if !queryir.IsIdentifier(c.Column) {
		return fmt.Errorf("config column %q is not identifier-safe", c.Column)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("config max_depth must be >= 0, got %d", c.MaxDepth)
	}
	if c.Postgres.Table != "" && !queryir.IsIdentifier(c.Postgres.Table) {
		return fmt.Errorf("config postgres.table %q is not identifier-safe", c.Postgres.Table)
	}
	return nil
}

// CompileOptions returns the querysql options implied by the config.
func (c *Config) CompileOptions() []querysql.Option {
	return []querysql.Option{
		querysql.WithColumn(c.Column),
		querysql.WithMaxDepth(c.MaxDepth),
	}
}
