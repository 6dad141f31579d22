// Package cache provides pluggable caching for the placement pipeline.
//
// Three key spaces exist, one per pipeline stage:
//   - blocks: decoded voxel record sets, keyed by record content
//   - plan:   placement results, keyed by block content and deck parameters
//   - artifact: rendered outputs, keyed by plan content and render options
//
// Backends implement the Cache interface; FileCache serves the CLI and
// NullCache disables caching entirely.
package cache

import (
	"context"
	"time"
)

// TTLs per key space. Inputs are content-addressed, so entries never go
// stale; the TTLs only bound disk growth.
const (
	TTLBlocks   = 7 * 24 * time.Hour
	TTLPlan     = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache is a byte-oriented cache with TTL support.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// PlanKeyOpts are the inputs that change a placement outcome besides the
// blocks themselves.
type PlanKeyOpts struct {
	DeckWidth        int
	DeckHeight       int
	BowClearance     int
	SternClearance   int
	BlockSpacing     int
	RingBowClearance int
	Phase1Candidates int
	Phase2Candidates int
}

// ArtifactKeyOpts are the render inputs per output format.
type ArtifactKeyOpts struct {
	Format   string
	CellSize float64
	Grid     bool
}

// Keyer generates cache keys for the three key spaces.
type Keyer interface {
	// BlocksKey generates a key for a decoded block set.
	BlocksKey(recordsHash string) string

	// PlanKey generates a key for a placement result.
	PlanKey(blocksHash string, opts PlanKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact.
	ArtifactKey(planHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// BlocksKey generates a key for a decoded block set.
func (k *DefaultKeyer) BlocksKey(recordsHash string) string {
	return hashKey("blocks", recordsHash)
}

// PlanKey generates a key for a placement result.
func (k *DefaultKeyer) PlanKey(blocksHash string, opts PlanKeyOpts) string {
	return hashKey("plan", blocksHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(planHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", planHash, opts)
}
