// Package cache stores serialized session snapshots and plan results.
//
// Three backends implement [Cache]:
//   - [NullCache]: stores nothing; the default when persistence is disabled
//   - [FileCache]: JSON entries under a directory, for the CLI and single hosts
//   - [RedisCache]: shared store for several server instances
//
// Keys are produced by a [Keyer] so callers never hand-build key strings.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. A missing or
	// expired key is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A non-positive ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// SnapshotKey is the key of the latest snapshot of a map session.
	SnapshotKey(sessionID string) string

	// PlanKey is the key of a one-shot plan result for a map fingerprint.
	PlanKey(mapHash string, opts PlanKeyOpts) string
}

// PlanKeyOpts holds the request fields that change a plan result.
type PlanKeyOpts struct {
	Starts   [][2]int `json:"starts"`
	Goal     [2]int   `json:"goal"`
	Obstacle *[2]int  `json:"obstacle,omitempty"`
	Steps    int      `json:"steps"`
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SnapshotKey returns "snapshot:<id>".
func (DefaultKeyer) SnapshotKey(sessionID string) string {
	return "snapshot:" + sessionID
}

// PlanKey hashes the map fingerprint together with the request fields.
func (DefaultKeyer) PlanKey(mapHash string, opts PlanKeyOpts) string {
	return hashKey("plan", mapHash, opts)
}
