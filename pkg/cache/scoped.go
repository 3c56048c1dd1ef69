package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one Redis database.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "trackplan:floor-2:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SnapshotKey generates a prefixed snapshot key.
func (k *ScopedKeyer) SnapshotKey(sessionID string) string {
	return k.prefix + k.inner.SnapshotKey(sessionID)
}

// PlanKey generates a prefixed plan key.
func (k *ScopedKeyer) PlanKey(mapHash string, opts PlanKeyOpts) string {
	return k.prefix + k.inner.PlanKey(mapHash, opts)
}
