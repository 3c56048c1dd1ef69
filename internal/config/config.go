// Package config loads trackplan settings from defaults, an optional TOML
// file and TRACKPLAN_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	appName   = "trackplan"
	envPrefix = "TRACKPLAN"
)

// Map sources.
const (
	SourceFile  = "file"
	SourceMongo = "mongo"
)

// Snapshot store backends.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config is the complete trackplan configuration.
type Config struct {
	Server    ServerConfig   `mapstructure:"server"`
	Map       MapConfig      `mapstructure:"map"`
	Mongo     MongoConfig    `mapstructure:"mongo"`
	Obstacles ObstacleConfig `mapstructure:"obstacles"`
	Store     StoreConfig    `mapstructure:"store"`
	Redis     RedisConfig    `mapstructure:"redis"`
	Metrics   MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// MapConfig selects where the map comes from.
type MapConfig struct {
	// Source is "file" or "mongo".
	Source string `mapstructure:"source"`
	// Path is the JSON or TOML map file for the file source.
	Path string `mapstructure:"path"`
	// Name selects the document for the mongo source.
	Name string `mapstructure:"name"`
	// Watch reloads the map file when it changes on disk.
	Watch bool `mapstructure:"watch"`
}

// MongoConfig locates the map collection.
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// ObstacleConfig controls temporary obstacles.
type ObstacleConfig struct {
	Expiry time.Duration `mapstructure:"expiry"`
}

// StoreConfig selects where session snapshots are persisted.
type StoreConfig struct {
	Backend string        `mapstructure:"backend"`
	Dir     string        `mapstructure:"dir"` // file backend; empty uses the user cache dir
	TTL     time.Duration `mapstructure:"ttl"`
	Prefix  string        `mapstructure:"prefix"` // scopes keys when deployments share a store
}

// RedisConfig locates the Redis snapshot store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":5000"},
		Map: MapConfig{
			Source: SourceFile,
			Path:   "mapa.json",
		},
		Mongo: MongoConfig{
			Database:   appName,
			Collection: "maps",
		},
		Obstacles: ObstacleConfig{Expiry: 4 * time.Second},
		Store: StoreConfig{
			Backend: BackendNone,
			TTL:     24 * time.Hour,
		},
		Redis:   RedisConfig{Addr: "localhost:6379"},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// SetDefaults registers every key of Default on v so that environment
// overrides apply to keys absent from the config file.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.addr", d.Server.Addr)

	v.SetDefault("map.source", d.Map.Source)
	v.SetDefault("map.path", d.Map.Path)
	v.SetDefault("map.name", d.Map.Name)
	v.SetDefault("map.watch", d.Map.Watch)

	v.SetDefault("mongo.uri", d.Mongo.URI)
	v.SetDefault("mongo.database", d.Mongo.Database)
	v.SetDefault("mongo.collection", d.Mongo.Collection)

	v.SetDefault("obstacles.expiry", d.Obstacles.Expiry)

	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("store.ttl", d.Store.TTL)
	v.SetDefault("store.prefix", d.Store.Prefix)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
}

// NewViper returns a viper instance with defaults, environment binding and,
// when one exists, the config file read in. An explicit path must exist; the
// implicit search (./trackplan.toml, then ConfigDir) may find nothing.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
		return v, nil
	}

	v.SetConfigName(appName)
	v.AddConfigPath(".")
	v.AddConfigPath(ConfigDir())
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return v, nil
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// Load is NewViper followed by FromViper.
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// ConfigDir returns the per-user config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + appName
	}
	return filepath.Join(home, ".config", appName)
}
