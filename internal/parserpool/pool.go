// Package parserpool reuses tree-sitter parsers across files within a
// language, the "pooled parser" of spec §4.7 step 3. Grounded on the
// sync.Pool-of-parsers idiom seen in the retrieved corpus's tree-sitter
// analyzers (a parser per language, borrowed/returned around each parse).
package parserpool

import (
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// Pool hands out *sitter.Parser instances pre-configured for one
// language, recycling them via sync.Pool instead of constructing a new
// parser (and its internal state) per file.
type Pool struct {
	mu    sync.Mutex
	pools map[string]*sync.Pool

	borrowed int64
	returned int64
}

// New returns an empty Pool; register languages with Register.
func New() *Pool {
	return &Pool{pools: make(map[string]*sync.Pool)}
}

// Register makes lang available for Borrow, backed by a sync.Pool whose
// New func creates a parser set to language each time the pool needs to
// grow.
func (p *Pool) Register(lang string, language *sitter.Language) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pools[lang] = &sync.Pool{
		New: func() interface{} {
			parser := sitter.NewParser()
			parser.SetLanguage(language)
			return parser
		},
	}
}

// Borrow returns a parser for lang, or nil if lang was never registered.
func (p *Pool) Borrow(lang string) *sitter.Parser {
	p.mu.Lock()
	pool, ok := p.pools[lang]
	p.mu.Unlock()
	if !ok {
		return nil
	}
	p.mu.Lock()
	p.borrowed++
	p.mu.Unlock()
	return pool.Get().(*sitter.Parser)
}

// Return gives a parser back to its language's pool for reuse.
func (p *Pool) Return(lang string, parser *sitter.Parser) {
	p.mu.Lock()
	pool, ok := p.pools[lang]
	if ok {
		p.returned++
	}
	p.mu.Unlock()
	if ok {
		pool.Put(parser)
	}
}

// Stats mirrors the teacher's providers.Stats shape for observability.
type Stats struct {
	Borrowed int64
	Returned int64
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{Borrowed: p.borrowed, Returned: p.returned}
}
