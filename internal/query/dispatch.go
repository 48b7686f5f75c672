package query

import (
	"context"
	"sort"

	"github.com/oxhq/cascade/internal/types"
)

// Hit is the search-surface-agnostic result row SearchByIntent produces,
// letting "mixed" intent merge symbol hits and content hits into one
// ranked list.
type Hit struct {
	ID       string
	FilePath string
	Name     string
	Kind     string
	Snippet  string
	Score    float64
	Source   string // "symbol" or "content"
}

// SearchByIntent classifies query (spec §4.9's intent table) and dispatches
// to the sub-search(es) it names: definitions/exact-symbol/generic-type/
// operator-use/file-path all resolve to symbol search, content/semantic
// resolve to content search, and mixed runs every applicable sub-query and
// merges the results.
func (r *Router) SearchByIntent(ctx context.Context, query string, filters types.Filters, limit int) ([]Hit, error) {
	return r.dispatchIntent(ctx, query, ClassifyIntent(query), filters, limit)
}

func (r *Router) dispatchIntent(ctx context.Context, query string, intent types.SearchIntent, filters types.Filters, limit int) ([]Hit, error) {
	switch intent {
	case types.IntentMixed:
		return r.searchMixed(ctx, query, filters, limit)
	case types.IntentContent, types.IntentSemantic:
		hits, err := r.SearchContent(ctx, query, filters, limit)
		if err != nil {
			return nil, err
		}
		return contentHitsToHits(hits), nil
	default:
		hits, err := r.SearchSymbols(ctx, query, filters, limit)
		if err != nil {
			return nil, err
		}
		return symbolHitsToHits(hits), nil
	}
}

// searchMixed implements spec §4.9's mixed-intent dispatch: run each
// applicable sub-query, merge the results, deduplicate by (id, file), and
// keep the max score on overlap.
func (r *Router) searchMixed(ctx context.Context, query string, filters types.Filters, limit int) ([]Hit, error) {
	symHits, err := r.SearchSymbols(ctx, query, filters, limit)
	if err != nil {
		return nil, err
	}
	contentHits, err := r.SearchContent(ctx, query, filters, limit)
	if err != nil {
		return nil, err
	}
	merged := append(symbolHitsToHits(symHits), contentHitsToHits(contentHits)...)
	return mergeHits(merged, limit), nil
}

func symbolHitsToHits(hits []SymbolHit) []Hit {
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		out = append(out, Hit{ID: h.ID, FilePath: h.FilePath, Name: h.Name, Kind: h.Kind, Score: h.Score, Source: "symbol"})
	}
	return out
}

// contentHitsToHits converts ContentHit rows to the merge-ready Hit shape.
// ContentHit carries no symbol id, so the file path doubles as the id half
// of the (id, file) dedup key, which still collapses repeat hits on the
// same file across sub-queries.
func contentHitsToHits(hits []ContentHit) []Hit {
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		out = append(out, Hit{ID: h.FilePath, FilePath: h.FilePath, Snippet: h.Snippet, Score: h.Score, Source: "content"})
	}
	return out
}

// mergeHits applies the (id, file) dedup + max-score-wins rule, re-sorts by
// score descending, and truncates to limit.
func mergeHits(hits []Hit, limit int) []Hit {
	type key struct{ id, file string }
	index := make(map[key]int, len(hits))
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		k := key{h.ID, h.FilePath}
		if i, ok := index[k]; ok {
			if h.Score > out[i].Score {
				out[i] = h
			}
			continue
		}
		index[k] = len(out)
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
