package query

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/cascade/db"
	"github.com/oxhq/cascade/internal/langconfig"
	"github.com/oxhq/cascade/internal/readiness"
	"github.com/oxhq/cascade/internal/store"
	"github.com/oxhq/cascade/internal/types"
	"github.com/oxhq/cascade/models"
)

// newTestRouter builds a Router with a nil reader, which forces every
// search onto the Symbol-Database fallback path (InvertedIndexReady is
// false by default) so these tests don't need a bleve index open.
func newTestRouter(t *testing.T) (*Router, *store.Store) {
	t.Helper()
	gdb, err := db.Connect(filepath.Join(t.TempDir(), "cascade.db"), false)
	require.NoError(t, err)
	st := store.New(gdb)
	return New(nil, st, langconfig.Default(), readiness.New()), st
}

func TestMergeHitsDedupesByIDAndFileKeepingMaxScore(t *testing.T) {
	hits := []Hit{
		{ID: "s1", FilePath: "a.go", Score: 1},
		{ID: "s1", FilePath: "a.go", Score: 4},
		{ID: "s2", FilePath: "b.go", Score: 2},
	}
	got := mergeHits(hits, 10)
	require.Len(t, got, 2)
	assert.Equal(t, "s1", got[0].ID)
	assert.Equal(t, 4.0, got[0].Score)
}

func TestMergeHitsTruncatesToLimit(t *testing.T) {
	hits := []Hit{
		{ID: "1", FilePath: "a", Score: 3},
		{ID: "2", FilePath: "b", Score: 2},
		{ID: "3", FilePath: "c", Score: 1},
	}
	got := mergeHits(hits, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
}

func TestSearchByIntentDefinitionsDelegatesToSymbolSearch(t *testing.T) {
	r, st := newTestRouter(t)
	require.NoError(t, st.BulkStoreSymbols("ws1", nil, []models.Symbol{
		{ID: "sym1", WorkspaceID: "ws1", FilePath: "a.go", Name: "Widget", Kind: "function"},
	}))

	hits, err := r.SearchByIntent(context.Background(), "widget", types.Filters{WorkspaceID: "ws1"}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "symbol", hits[0].Source)
	assert.Equal(t, "sym1", hits[0].ID)
}

func TestSearchByIntentMixedMergesSymbolAndContentSources(t *testing.T) {
	r, st := newTestRouter(t)
	require.NoError(t, st.BulkStoreSymbols("ws1", nil, []models.Symbol{
		{ID: "sym1", WorkspaceID: "ws1", FilePath: "a.go", Name: "Widget", Kind: "function"},
	}))
	content := "func helper_widget_loader() {}"
	require.NoError(t, st.BulkStoreFiles([]models.File{
		{Path: "b.go", WorkspaceID: "ws1", Language: "go", Content: &content},
	}))

	hits, err := r.dispatchIntent(context.Background(), "widget", types.IntentMixed, types.Filters{WorkspaceID: "ws1"}, 10)
	require.NoError(t, err)

	bySource := map[string]int{}
	for _, h := range hits {
		bySource[h.Source]++
	}
	assert.Equal(t, 1, bySource["symbol"])
	assert.Equal(t, 1, bySource["content"])
}
