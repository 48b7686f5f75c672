package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/cascade/db"
	"github.com/oxhq/cascade/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	gdb, err := db.Connect(filepath.Join(t.TempDir(), "cascade.db"), false)
	require.NoError(t, err)
	return New(gdb)
}

func strptr(s string) *string { return &s }

func TestEnsureWorkspaceUpsertsByID(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.EnsureWorkspace(models.Workspace{ID: "ws1", Root: "/a", Type: "primary"}))
	require.NoError(t, s.EnsureWorkspace(models.Workspace{ID: "ws1", Root: "/b", Type: "primary"}))

	var w models.Workspace
	require.NoError(t, s.DB().First(&w, "id = ?", "ws1").Error)
	assert.Equal(t, "/b", w.Root)
}

func TestBulkStoreFilesUpsertsByPath(t *testing.T) {
	s := newTestStore(t)
	content := "package main"
	require.NoError(t, s.BulkStoreFiles([]models.File{
		{Path: "main.go", WorkspaceID: "ws1", Language: "go", Hash: "h1", SymbolCount: 1, Content: &content},
	}))
	require.NoError(t, s.BulkStoreFiles([]models.File{
		{Path: "main.go", WorkspaceID: "ws1", Language: "go", Hash: "h2", SymbolCount: 2, Content: &content},
	}))

	f, err := s.FileByPath("ws1", "main.go")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "h2", f.Hash)
	assert.Equal(t, 2, f.SymbolCount)

	var count int64
	require.NoError(t, s.DB().Model(&models.File{}).Where("path = ?", "main.go").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestBulkStoreSymbolsReplacesStaleRowsPerFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.BulkStoreSymbols("ws1", nil, []models.Symbol{
		{ID: "sym-old", WorkspaceID: "ws1", FilePath: "a.go", Name: "Old", Kind: "function"},
	}))
	require.NoError(t, s.BulkStoreSymbols("ws1", []string{"a.go"}, []models.Symbol{
		{ID: "sym-new", WorkspaceID: "ws1", FilePath: "a.go", Name: "New", Kind: "function"},
	}))

	syms, err := s.SymbolsByFile("ws1", "a.go")
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "sym-new", syms[0].ID)
}

func TestBulkStoreRelationshipsReplacesByFromSymbol(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.BulkStoreSymbols("ws1", nil, []models.Symbol{
		{ID: "caller", WorkspaceID: "ws1", FilePath: "a.go", Name: "Caller", Kind: "function"},
		{ID: "callee", WorkspaceID: "ws1", FilePath: "a.go", Name: "Callee", Kind: "function"},
	}))
	require.NoError(t, s.BulkStoreRelationships("ws1", []string{"caller"}, []models.Relationship{
		{ID: "rel1", WorkspaceID: "ws1", FromSymbolID: "caller", ToSymbolID: "callee", Kind: "calls", FilePath: "a.go", LineNumber: 3, Confidence: 0.6},
	}))

	var count int64
	require.NoError(t, s.DB().Model(&models.Relationship{}).Where("from_symbol_id = ?", "caller").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, s.BulkStoreRelationships("ws1", []string{"caller"}, nil))
	require.NoError(t, s.DB().Model(&models.Relationship{}).Where("from_symbol_id = ?", "caller").Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDeleteFileCascadesSymbolsRelationshipsAndIdentifiers(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.BulkStoreFiles([]models.File{{Path: "a.go", WorkspaceID: "ws1", Language: "go"}}))
	require.NoError(t, s.BulkStoreSymbols("ws1", nil, []models.Symbol{
		{ID: "caller", WorkspaceID: "ws1", FilePath: "a.go", Name: "Caller", Kind: "function"},
	}))
	require.NoError(t, s.BulkStoreRelationships("ws1", nil, []models.Relationship{
		{ID: "rel1", WorkspaceID: "ws1", FromSymbolID: "caller", ToSymbolID: "callee", Kind: "calls", FilePath: "a.go"},
	}))
	require.NoError(t, s.BulkStoreIdentifiers("ws1", nil, []models.Identifier{
		{ID: "ident1", WorkspaceID: "ws1", Name: "Caller", FilePath: "a.go"},
	}))

	require.NoError(t, s.DeleteFile("ws1", "a.go"))

	f, err := s.FileByPath("ws1", "a.go")
	require.NoError(t, err)
	assert.Nil(t, f)

	syms, err := s.SymbolsByFile("ws1", "a.go")
	require.NoError(t, err)
	assert.Empty(t, syms)

	var relCount, identCount int64
	require.NoError(t, s.DB().Model(&models.Relationship{}).Where("from_symbol_id = ?", "caller").Count(&relCount).Error)
	require.NoError(t, s.DB().Model(&models.Identifier{}).Where("file_path = ?", "a.go").Count(&identCount).Error)
	assert.Equal(t, int64(0), relCount)
	assert.Equal(t, int64(0), identCount)
}

func TestSymbolsByIDsReturnsEmptyForEmptyInput(t *testing.T) {
	s := newTestStore(t)
	syms, err := s.SymbolsByIDs("ws1", nil)
	require.NoError(t, err)
	assert.Nil(t, syms)
}

func TestSymbolsByIDsFetchesMatchingRows(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.BulkStoreSymbols("ws1", nil, []models.Symbol{
		{ID: "s1", WorkspaceID: "ws1", FilePath: "a.go", Name: "A", Kind: "function", Signature: strptr("func A()")},
		{ID: "s2", WorkspaceID: "ws1", FilePath: "a.go", Name: "B", Kind: "function"},
	}))

	syms, err := s.SymbolsByIDs("ws1", []string{"s1"})
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "A", syms[0].Name)
	require.NotNil(t, syms[0].Signature)
	assert.Equal(t, "func A()", *syms[0].Signature)
}

func TestFindReferencesUnionsRelationshipsAndIdentifiersDeduped(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.BulkStoreRelationships("ws1", nil, []models.Relationship{
		{ID: "rel1", WorkspaceID: "ws1", FromSymbolID: "caller", ToSymbolID: "callee", Kind: "calls", FilePath: "a.go", LineNumber: 10, Confidence: 0.6},
	}))
	require.NoError(t, s.BulkStoreIdentifiers("ws1", nil, []models.Identifier{
		{ID: "ident1", WorkspaceID: "ws1", Name: "Callee", FilePath: "a.go", StartLine: 10, StartCol: 0, Confidence: 0.7},
		{ID: "ident2", WorkspaceID: "ws1", Name: "Callee", FilePath: "b.go", StartLine: 4, StartCol: 2, Confidence: 0.7},
	}))

	hits, err := s.FindReferences("ws1", "callee", "Callee", "", 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	bySource := map[string]int{}
	for _, h := range hits {
		bySource[h.Source]++
	}
	assert.Equal(t, 1, bySource["relationship"])
	assert.Equal(t, 1, bySource["identifier"])
}

func TestFindReferencesIncludesOutgoingCalleeEdges(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.BulkStoreRelationships("ws1", nil, []models.Relationship{
		{ID: "rel1", WorkspaceID: "ws1", FromSymbolID: "caller", ToSymbolID: "callee", Kind: "calls", FilePath: "a.go", LineNumber: 12, Confidence: 0.6},
	}))

	hits, err := s.FindReferences("ws1", "caller", "Caller", "", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "callee", hits[0].Source)
	assert.Equal(t, "a.go", hits[0].FilePath)
	assert.Equal(t, 12, hits[0].Line)
}

func TestFindReferencesExcludesNonReferenceKindsFromIncomingEdges(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.BulkStoreRelationships("ws1", nil, []models.Relationship{
		{ID: "rel1", WorkspaceID: "ws1", FromSymbolID: "class", ToSymbolID: "method", Kind: "contains", FilePath: "a.go", LineNumber: 5, Confidence: 1},
	}))

	hits, err := s.FindReferences("ws1", "method", "Method", "", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestFindReferencesExcludesSymbolsOwnDefinitionLine(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.BulkStoreIdentifiers("ws1", nil, []models.Identifier{
		{ID: "ident1", WorkspaceID: "ws1", Name: "Widget", FilePath: "a.go", StartLine: 7, StartCol: 5, Confidence: 0.7},
		{ID: "ident2", WorkspaceID: "ws1", Name: "Widget", FilePath: "b.go", StartLine: 2, StartCol: 0, Confidence: 0.7},
	}))

	hits, err := s.FindReferences("ws1", "widget", "Widget", "a.go", 7)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b.go", hits[0].FilePath)
}

func TestContentSearchFindsFileByStoredContent(t *testing.T) {
	s := newTestStore(t)
	content := "func veryUniqueMarkerFunction() {}"
	require.NoError(t, s.BulkStoreFiles([]models.File{
		{Path: "a.go", WorkspaceID: "ws1", Language: "go", Content: &content},
	}))

	hits, err := s.ContentSearch("ws1", "veryUniqueMarkerFunction", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a.go", hits[0].FilePath)
}

func TestContentSearchLikeFallbackDirectly(t *testing.T) {
	s := newTestStore(t)
	content := "func veryUniqueMarkerFunction() {}"
	require.NoError(t, s.BulkStoreFiles([]models.File{
		{Path: "a.go", WorkspaceID: "ws1", Language: "go", Content: &content},
	}))

	hits, err := s.contentSearchLike("ws1", "MarkerFunction", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a.go", hits[0].FilePath)
}

func TestDropAndRebuildIndexesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.DropIndexes())
	for _, idx := range bulkToggleIndexes {
		assert.False(t, s.DB().Migrator().HasIndex(idx.model, idx.name))
	}
	require.NoError(t, s.RebuildIndexes())
	for _, idx := range bulkToggleIndexes {
		assert.True(t, s.DB().Migrator().HasIndex(idx.model, idx.name))
	}
}
