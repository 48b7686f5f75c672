// Package extractor implements the C6 extraction contract of spec §4.6:
// given a parsed file, walk its syntax tree and emit the rows the Symbol
// Database stores — symbols, relationships, and raw identifier
// occurrences. A tagged-dispatch factory (mirroring the teacher's
// providers.Registry / catalog pattern) chooses the right extractor by
// language, falling back to a text-only extractor for languages with no
// tree-sitter grammar wired in.
package extractor

import (
	"sort"
	"strings"
	"sync"

	"github.com/oxhq/cascade/models"
)

// Result is everything one file's extraction pass produces. Content is
// the full decoded text, carried through so the caller can build the
// file-kind inverted-index document without re-reading the file.
type Result struct {
	Symbols       []models.Symbol
	Relationships []models.Relationship
	Identifiers   []models.Identifier
	Content       string
}

// Extractor is the per-language extraction contract.
type Extractor interface {
	Language() string
	Extensions() []string
	Extract(workspaceID, path string, source []byte) (Result, error)
}

// Factory dispatches to a registered Extractor by language or, failing
// that, by file extension — the same two-level lookup as the teacher's
// providers.Registry plus catalog.
type Factory struct {
	mu         sync.RWMutex
	byLanguage map[string]Extractor
	byExt      map[string]Extractor
	fallback   Extractor
}

// NewFactory returns an empty factory; callers register extractors with
// Register or use Default for the shipped set.
func NewFactory() *Factory {
	return &Factory{
		byLanguage: make(map[string]Extractor),
		byExt:      make(map[string]Extractor),
	}
}

// Register adds e under its own language name and every extension it
// declares, overwriting any previous registration for the same keys.
func (f *Factory) Register(e Extractor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byLanguage[e.Language()] = e
	for _, ext := range e.Extensions() {
		f.byExt[strings.ToLower(ext)] = e
	}
}

// SetFallback sets the extractor used when no language or extension
// match is found (spec §4.6: "files in unsupported languages still get a
// file-kind document in the inverted index").
func (f *Factory) SetFallback(e Extractor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallback = e
}

// ForLanguage returns the extractor registered for lang.
func (f *Factory) ForLanguage(lang string) (Extractor, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.byLanguage[lang]
	return e, ok
}

// ForExtension resolves an extractor by file extension, falling back to
// the text-only extractor when nothing is registered for ext.
func (f *Factory) ForExtension(ext string) Extractor {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if e, ok := f.byExt[strings.ToLower(ext)]; ok {
		return e
	}
	return f.fallback
}

// Languages lists every registered language, sorted.
func (f *Factory) Languages() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	langs := make([]string, 0, len(f.byLanguage))
	for l := range f.byLanguage {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}
