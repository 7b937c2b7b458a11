/*
source.go - Loading, versioning, and snapshot caching for the rate table

PURPOSE:
  The rate table is one of the engine's two read-only configuration
  resources. Sources expose a cheap version stamp (file modification time,
  sqlite user_version) so the cache can invalidate without re-parsing.

CONCURRENCY CONTRACT:
  Snapshots are immutable once published. CachedSource publishes a new
  snapshot via an atomic pointer swap under a single-writer mutex, so many
  concurrent worker calculations read without ever observing a partially
  updated table.

FAILURE MODES:
  - Unreadable/unparseable resource: InfrastructureError. No safe default
    exists; the caller must fail the calculation.
  - Load deadline exceeded: the error unwraps to context.DeadlineExceeded.
    The integrator treats that as a recoverable, AMBER-producing failure.
*/
package rates

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/warp/compliance-engine/nmw"
)

// =============================================================================
// SOURCE - Where the rate table comes from
// =============================================================================

// Source loads the rate table from a backing resource.
type Source interface {
	// Load reads and parses the full table.
	Load(ctx context.Context) (*Table, error)

	// Version returns a cheap opaque stamp that changes whenever the
	// backing resource changes.
	Version(ctx context.Context) (string, error)
}

// =============================================================================
// FILE SOURCE - JSON document on disk, versioned by modification time
// =============================================================================

type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource { return &FileSource{Path: path} }

func (s *FileSource) Load(_ context.Context) (*Table, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, &nmw.InfrastructureError{Resource: "rate table", Err: err}
	}
	var t Table
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, &nmw.InfrastructureError{Resource: "rate table", Err: fmt.Errorf("parse %s: %w", s.Path, err)}
	}
	t.Sort()
	if err := t.Validate(); err != nil {
		return nil, &nmw.InfrastructureError{Resource: "rate table", Err: err}
	}
	return &t, nil
}

func (s *FileSource) Version(_ context.Context) (string, error) {
	fi, err := os.Stat(s.Path)
	if err != nil {
		return "", &nmw.InfrastructureError{Resource: "rate table", Err: err}
	}
	return fi.ModTime().UTC().Format(time.RFC3339Nano), nil
}

// =============================================================================
// STATIC SOURCE - Fixed in-memory table (tests, embedded defaults)
// =============================================================================

type StaticSource struct {
	Table   Table
	Stamp   string
	LoadErr error
}

func NewStaticSource(t Table) *StaticSource {
	t.Sort()
	return &StaticSource{Table: t, Stamp: "static"}
}

func (s *StaticSource) Load(_ context.Context) (*Table, error) {
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	t := s.Table
	return &t, nil
}

func (s *StaticSource) Version(_ context.Context) (string, error) {
	if s.LoadErr != nil {
		return "", s.LoadErr
	}
	return s.Stamp, nil
}

// =============================================================================
// CACHED SOURCE - Copy-on-write snapshot with explicit invalidation
// =============================================================================

// DefaultLoadTimeout bounds a single rate-table load. Exceeding it degrades
// the calculation to AMBER rather than crashing it.
const DefaultLoadTimeout = 2 * time.Second

type snapshot struct {
	table   *Table
	version string
}

// CachedSource wraps a Source with a version-checked snapshot cache.
// Reads are lock-free; refreshes go through a single-writer mutex.
type CachedSource struct {
	src     Source
	timeout time.Duration

	mu   sync.Mutex // serializes refreshes
	snap atomic.Pointer[snapshot]
}

func NewCachedSource(src Source, timeout time.Duration) *CachedSource {
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	return &CachedSource{src: src, timeout: timeout}
}

// Snapshot returns the current table and its version stamp, refreshing the
// cache when the backing resource has changed. Readers holding an older
// snapshot are unaffected by a concurrent refresh.
func (c *CachedSource) Snapshot(ctx context.Context) (*Table, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	v, err := c.src.Version(ctx)
	if err != nil {
		return nil, "", err
	}
	if s := c.snap.Load(); s != nil && s.version == v {
		return s.table, s.version, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another refresher may have won the race while we waited.
	if s := c.snap.Load(); s != nil && s.version == v {
		return s.table, s.version, nil
	}

	t, err := c.src.Load(ctx)
	if err != nil {
		return nil, "", err
	}
	s := &snapshot{table: t, version: v}
	c.snap.Store(s)
	return s.table, s.version, nil
}

// Invalidate drops the cached snapshot, forcing the next Snapshot call to
// reload from the source.
func (c *CachedSource) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Store(nil)
}
