// Package cache provides byte caching for derived survey artifacts.
//
// Layouts and rendered exports are deterministic functions of the
// graph, so they are cached under keys derived from a hash of the
// serialized graph. Backends:
//   - redis: shared cache for multi-instance deployments
//   - file: local cache for CLI usage
//   - null: disabled caching
package cache

import (
	"context"
	"time"
)

// Cache is the interface for cache backends.
type Cache interface {
	// Get retrieves a value. The second return reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with an optional TTL (0 means no expiry).
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// =============================================================================
// Keyer - Cache Key Construction
// =============================================================================

// LayoutKeyOpts are the layout parameters that affect computed
// positions. Two graphs with the same hash but different gap settings
// must not share a cached layout.
type LayoutKeyOpts struct {
	BaseGap        float64 `json:"base_gap"`
	CriticalGap    float64 `json:"critical_gap"`
	MediaGap       float64 `json:"media_gap"`
	NestedGap      float64 `json:"nested_gap"`
	HorizontalUnit float64 `json:"horizontal_unit"`
}

// ArtifactKeyOpts identify a rendered export variant.
type ArtifactKeyOpts struct {
	Format string `json:"format"` // "svg" or "dot"
}

// Keyer builds cache keys for the derived-data caches.
type Keyer interface {
	// SurveyKey keys a serialized survey document by id.
	SurveyKey(id string) string

	// LayoutKey keys a computed layout by graph hash and layout options.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered export by graph hash and format.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// SurveyKey returns "survey:{id}".
func (k *DefaultKeyer) SurveyKey(id string) string {
	return "survey:" + id
}

// LayoutKey hashes the graph hash together with the layout options.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey hashes the graph hash together with the export options.
func (k *DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", graphHash, opts)
}

var _ Keyer = (*DefaultKeyer)(nil)
