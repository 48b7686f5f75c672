// Package readiness tracks which query tiers are populated, per spec
// §4.10: the Symbol Database is always ready once migrated; the inverted
// index and the embedding store become ready only after their background
// population tasks finish. Each flag is a bare atomic.Bool so readers
// never block on, or share a lock with, the writers that flip them
// (spec §5's deadlock-avoidance rule, carried into Go as "never hold a
// mutex across a goroutine boundary").
package readiness

import "sync/atomic"

// Flags is the three-tier readiness state for one workspace.
type Flags struct {
	fts       atomic.Bool
	inverted  atomic.Bool
	embedding atomic.Bool
}

// New returns Flags with the Symbol Database tier already ready — it has
// no background population step, migration alone makes it queryable.
func New() *Flags {
	f := &Flags{}
	f.fts.Store(true)
	return f
}

func (f *Flags) SymbolDatabaseReady() bool { return f.fts.Load() }
func (f *Flags) InvertedIndexReady() bool  { return f.inverted.Load() }
func (f *Flags) EmbeddingReady() bool      { return f.embedding.Load() }

func (f *Flags) SetInvertedIndexReady(ready bool) { f.inverted.Store(ready) }
func (f *Flags) SetEmbeddingReady(ready bool)     { f.embedding.Store(ready) }

// SetSymbolDatabaseReady exists for the degraded-mode case where a
// workspace's SQLite connection itself is unavailable (spec §4.10's
// "graceful degradation" note) — migration succeeded does not imply the
// connection stays healthy for the process lifetime.
func (f *Flags) SetSymbolDatabaseReady(ready bool) { f.fts.Store(ready) }
