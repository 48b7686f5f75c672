package query

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/oxhq/cascade/internal/types"
	"github.com/oxhq/cascade/models"
)

// searchSymbolsFallback serves symbol search directly from the Symbol
// Database when the inverted index tier is not ready (spec §4.10:
// "queries must still succeed by falling back to the Symbol Database").
// It has none of the index's ranking or field boosting — a plain
// case-insensitive substring match on name, ordered by name length as a
// cheap relevance proxy (shorter names are more likely exact matches).
func (r *Router) searchSymbolsFallback(filters types.Filters, query string, limit int) ([]SymbolHit, error) {
	tx := r.store.DB().Where("workspace_id = ?", filters.WorkspaceID)
	if query != "" {
		tx = tx.Where("name LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	if filters.Language != "" {
		tx = tx.Where("language = ?", filters.Language)
	}
	if filters.SymbolKind != "" {
		tx = tx.Where("kind = ?", filters.SymbolKind)
	}

	var rows []models.Symbol
	if err := tx.Order("length(name) asc").Limit(limit * 3).Find(&rows).Error; err != nil {
		return nil, err
	}

	hits := make([]SymbolHit, 0, len(rows))
	for _, s := range rows {
		hit := SymbolHit{
			ID:        s.ID,
			Name:      s.Name,
			FilePath:  s.FilePath,
			Language:  s.Language,
			Kind:      s.Kind,
			StartLine: uint64(s.StartLine),
			Score:     1,
		}
		if s.Signature != nil {
			hit.Signature = *s.Signature
		}
		if s.DocComment != nil {
			hit.DocComment = *s.DocComment
		}
		if s.Visibility != nil {
			hit.Visibility = *s.Visibility
		}
		if s.CodeContext != nil {
			hit.CodeContext = *s.CodeContext
		}
		hits = append(hits, hit)
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

// searchContentFallback delegates to the Symbol Database's FTS5/LIKE
// content search.
func (r *Router) searchContentFallback(filters types.Filters, query string, limit int) ([]ContentHit, error) {
	rows, err := r.store.ContentSearch(filters.WorkspaceID, query, limit)
	if err != nil {
		return nil, err
	}
	hits := make([]ContentHit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, ContentHit{FilePath: row.FilePath, Snippet: row.Snippet, Score: row.Score})
	}
	return hits, nil
}

func filterByGlob(hits []SymbolHit, glob string) []SymbolHit {
	out := hits[:0]
	for _, h := range hits {
		if ok, _ := doublestar.Match(glob, h.FilePath); ok {
			out = append(out, h)
		}
	}
	return out
}

// ClassifyIntent is a light heuristic classifier over the raw query
// string, grounded on the regex/prefix-check style the teacher's
// matcher package uses for pattern dispatch. It is advisory — callers
// that skip it still get correct results, just without the UI hint of
// what kind of search the user probably meant.
func ClassifyIntent(q string) types.SearchIntent {
	trimmed := strings.TrimSpace(q)
	switch {
	case trimmed == "":
		return types.IntentMixed
	case strings.Contains(trimmed, "::") || strings.Contains(trimmed, "->"):
		return types.IntentOperatorUse
	case strings.Contains(trimmed, "<") && strings.Contains(trimmed, ">"):
		return types.IntentGenericType
	case strings.Contains(trimmed, "/") || strings.Contains(trimmed, "."):
		return types.IntentFilePath
	case strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`):
		return types.IntentExactSymbol
	case strings.Contains(trimmed, " "):
		return types.IntentContent
	default:
		return types.IntentDefinitions
	}
}

// PromoteExactMatches implements spec §4.9's exact-match promotion for the
// definitions target: any hit whose name exactly equals query is lifted
// ahead of every other hit (the "Definition found" section; everything
// after it is "Other matches"), with each group's relative order
// preserved. A no-op when nothing matches exactly.
func PromoteExactMatches(query string, hits []SymbolHit) []SymbolHit {
	if len(hits) == 0 {
		return hits
	}
	exact := make([]SymbolHit, 0, len(hits))
	other := make([]SymbolHit, 0, len(hits))
	for _, h := range hits {
		if h.Name == query {
			exact = append(exact, h)
		} else {
			other = append(other, h)
		}
	}
	if len(exact) == 0 {
		return hits
	}
	return append(exact, other...)
}
