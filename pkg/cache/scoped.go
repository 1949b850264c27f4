package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// Different owners get separate cache namespaces even when their
// surveys hash identically.
//
// Example usage:
//
//	// Owner-specific keys for private surveys
//	ownerKeyer := NewScopedKeyer(NewDefaultKeyer(), "owner:abc123:")
//
//	// Global keys for public surveys
//	globalKeyer := NewDefaultKeyer()
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

// SurveyKey generates a prefixed key for survey document caching.
func (k *ScopedKeyer) SurveyKey(id string) string {
	return k.prefix + k.inner.SurveyKey(id)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(graphHash, opts)
}

// ArtifactKey generates a prefixed key for rendered export caching.
func (k *ScopedKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(graphHash, opts)
}
