// Package query implements the C9 query router of spec §4.9: intent
// classification, compound-token handling, Boolean query composition
// over the inverted index with field boosts, important-pattern
// rescoring, Symbol Database enrichment, and the content-search
// false-positive-suppression pass. When the inverted index tier is not
// ready (spec §4.10), both operations fall back to the Symbol Database's
// own search path instead of failing.
package query

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"

	"github.com/oxhq/cascade/internal/langconfig"
	"github.com/oxhq/cascade/internal/readiness"
	"github.com/oxhq/cascade/internal/searchindex"
	"github.com/oxhq/cascade/internal/searchschema"
	"github.com/oxhq/cascade/internal/store"
	"github.com/oxhq/cascade/internal/tokenizer"
	"github.com/oxhq/cascade/internal/types"
)

// Router serves search_symbols/search_content against whichever tier is
// ready for a given workspace.
type Router struct {
	reader *searchindex.Reader
	store  *store.Store
	langs  *langconfig.Registry
	tok    *tokenizer.Tokenizer
	flags  *readiness.Flags
}

// New wires a Router. reader may be nil if the inverted index has not
// been opened yet; readiness.Flags governs whether it is consulted.
func New(reader *searchindex.Reader, st *store.Store, langs *langconfig.Registry, flags *readiness.Flags) *Router {
	return &Router{reader: reader, store: st, langs: langs, tok: tokenizer.New(langs), flags: flags}
}

// SymbolHit is one ranked symbol result, enriched with Symbol Database
// fields the index does not store.
type SymbolHit struct {
	ID         string
	Name       string
	FilePath   string
	Language   string
	Kind       string
	Signature  string
	DocComment string
	StartLine  uint64
	Score      float64
	Visibility string
	CodeContext string
}

// SearchSymbols implements spec §4.9's symbol-search algorithm.
func (r *Router) SearchSymbols(ctx context.Context, query string, filters types.Filters, limit int) ([]SymbolHit, error) {
	if r.reader == nil || !r.flags.InvertedIndexReady() {
		return r.searchSymbolsFallback(filters, query, limit)
	}

	tokens := dedupe(tokensOf(r.tok, query))
	tokens = dropRedundantCompounds(tokens)
	if len(tokens) == 0 {
		return nil, nil
	}

	bq := bleve.NewBooleanQuery()
	docTypeQ := bleve.NewTermQuery(types.DocTypeSymbol)
	docTypeQ.SetField(searchschema.FieldDocType)
	bq.AddMust(docTypeQ)
	for _, tok := range tokens {
		bq.AddMust(newFieldDisjunction(tok))
	}
	if filters.Language != "" {
		q := bleve.NewTermQuery(filters.Language)
		q.SetField(searchschema.FieldLanguage)
		bq.AddMust(q)
	}
	if filters.SymbolKind != "" {
		q := bleve.NewTermQuery(filters.SymbolKind)
		q.SetField(searchschema.FieldKind)
		bq.AddMust(q)
	}

	fetchSize := limit * 3
	if fetchSize < limit {
		fetchSize = limit
	}
	res, err := r.reader.Search(bq, fetchSize)
	if err != nil {
		return nil, err
	}

	hits := make([]SymbolHit, 0, len(res.Hits))
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := SymbolHit{
			ID:        h.ID,
			Name:      fieldString(h.Fields, searchschema.FieldName),
			FilePath:  fieldString(h.Fields, searchschema.FieldFilePath),
			Language:  fieldString(h.Fields, searchschema.FieldLanguage),
			Kind:      fieldString(h.Fields, searchschema.FieldKind),
			Signature: fieldString(h.Fields, searchschema.FieldSignature),
			DocComment: fieldString(h.Fields, searchschema.FieldDocComment),
			Score:     h.Score,
		}
		if important := r.langs.ImportantPatterns(hit.Language); len(important) > 0 {
			for _, pat := range important {
				if strings.Contains(hit.Signature, pat) {
					hit.Score *= 1.5
					break
				}
			}
		}
		hits = append(hits, hit)
		ids = append(ids, hit.ID)
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if r.store != nil && len(ids) > 0 {
		enrich, err := r.store.SymbolsByIDs(filters.WorkspaceID, ids)
		if err == nil {
			byID := make(map[string]struct {
				visibility string
				context    string
			}, len(enrich))
			for _, s := range enrich {
				v := ""
				if s.Visibility != nil {
					v = *s.Visibility
				}
				c := ""
				if s.CodeContext != nil {
					c = *s.CodeContext
				}
				byID[s.ID] = struct {
					visibility string
					context    string
				}{v, c}
			}
			for i := range hits {
				if extra, ok := byID[hits[i].ID]; ok {
					hits[i].Visibility = extra.visibility
					hits[i].CodeContext = extra.context
				}
			}
		}
	}

	if filters.FileGlob != "" {
		hits = filterByGlob(hits, filters.FileGlob)
	}

	hits = PromoteExactMatches(query, hits)

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// ContentHit is one ranked file match from SearchContent.
type ContentHit struct {
	FilePath string
	Language string
	Snippet  string
	Score    float64
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// SearchContent implements spec §4.9's content-search algorithm,
// including the post-verification pass that fixes the Blake3/hash
// false-positive class.
func (r *Router) SearchContent(ctx context.Context, query string, filters types.Filters, limit int) ([]ContentHit, error) {
	if r.reader == nil || !r.flags.InvertedIndexReady() {
		return r.searchContentFallback(filters, query, limit)
	}

	tokens := dedupe(tokensOf(r.tok, query))
	if len(tokens) == 0 {
		return nil, nil
	}

	bq := bleve.NewBooleanQuery()
	for _, tok := range tokens {
		q := bleve.NewMatchQuery(tok)
		q.SetField(searchschema.FieldContent)
		bq.AddMust(q)
	}
	if filters.Language != "" {
		q := bleve.NewTermQuery(filters.Language)
		q.SetField(searchschema.FieldLanguage)
		bq.AddMust(q)
	}

	candidateSize := limit * 5
	res, err := r.reader.Search(bq, candidateSize)
	if err != nil {
		return nil, err
	}

	words := verificationWords(query)
	hits := make([]ContentHit, 0, limit)
	for _, h := range res.Hits {
		path := fieldString(h.Fields, searchschema.FieldFilePath)
		lang := fieldString(h.Fields, searchschema.FieldLanguage)

		file, err := r.store.FileByPath(filters.WorkspaceID, path)
		if err == nil && file != nil && file.Content != nil {
			if !containsAllWords(*file.Content, words) {
				continue
			}
		}
		// file missing from the database: include unverified, per §4.9 step 4.

		hits = append(hits, ContentHit{FilePath: path, Language: lang, Score: h.Score})
		if len(hits) >= limit {
			break
		}
	}
	return hits, nil
}

func verificationWords(query string) []string {
	parts := nonAlnum.Split(query, -1)
	words := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		words = append(words, strings.ToLower(p))
	}
	return words
}

func containsAllWords(content string, words []string) bool {
	lower := strings.ToLower(content)
	for _, w := range words {
		if !strings.Contains(lower, w) {
			return false
		}
	}
	return true
}

func tokensOf(t *tokenizer.Tokenizer, text string) []string {
	toks := t.Tokenize(text)
	out := make([]string, 0, len(toks))
	for _, tok := range toks {
		out = append(out, tok.Text)
	}
	return out
}

func dedupe(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// dropRedundantCompounds implements spec §4.9 step 2: drop a snake_case
// token when every part it splits into is already present in the set.
func dropRedundantCompounds(tokens []string) []string {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !strings.Contains(t, "_") {
			out = append(out, t)
			continue
		}
		parts := strings.Split(t, "_")
		allPresent := true
		for _, p := range parts {
			if p == "" || !set[p] {
				allPresent = false
				break
			}
		}
		if allPresent {
			continue
		}
		out = append(out, t)
	}
	return out
}

func fieldString(fields map[string]interface{}, name string) string {
	if v, ok := fields[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
