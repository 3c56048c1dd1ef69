package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError is a single invalid setting.
type ValidationError struct {
	Field   string // config key, e.g. "store.backend"
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every invalid setting found by Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidSources lists the accepted map.source values.
func ValidSources() []string { return []string{SourceFile, SourceMongo} }

// ValidBackends lists the accepted store.backend values.
func ValidBackends() []string { return []string{BackendNone, BackendFile, BackendRedis} }

// Validate returns every invalid setting in c.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if c.Server.Addr == "" {
		add("server.addr", c.Server.Addr, "must not be empty")
	}

	switch c.Map.Source {
	case SourceFile:
		if c.Map.Path == "" {
			add("map.path", c.Map.Path, "required for the file source")
		}
	case SourceMongo:
		if c.Mongo.URI == "" {
			add("mongo.uri", c.Mongo.URI, "required for the mongo source")
		}
		if c.Mongo.Database == "" {
			add("mongo.database", c.Mongo.Database, "required for the mongo source")
		}
		if c.Mongo.Collection == "" {
			add("mongo.collection", c.Mongo.Collection, "required for the mongo source")
		}
		if c.Map.Name == "" {
			add("map.name", c.Map.Name, "required for the mongo source")
		}
		if c.Map.Watch {
			add("map.watch", c.Map.Watch, "only supported for the file source")
		}
	default:
		add("map.source", c.Map.Source, "must be one of "+strings.Join(ValidSources(), ", "))
	}

	if c.Obstacles.Expiry <= 0 {
		add("obstacles.expiry", c.Obstacles.Expiry, "must be positive")
	}

	if !slices.Contains(ValidBackends(), c.Store.Backend) {
		add("store.backend", c.Store.Backend, "must be one of "+strings.Join(ValidBackends(), ", "))
	}
	if c.Store.TTL < 0 {
		add("store.ttl", c.Store.TTL, "must not be negative")
	}
	if c.Store.Backend == BackendRedis && c.Redis.Addr == "" {
		add("redis.addr", c.Redis.Addr, "required for the redis backend")
	}
	if c.Redis.DB < 0 {
		add("redis.db", c.Redis.DB, "must not be negative")
	}

	return errs
}
