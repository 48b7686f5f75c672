package searchindex

import (
	"path/filepath"
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/cascade/internal/cascadeerr"
	"github.com/oxhq/cascade/internal/searchschema"
	"github.com/oxhq/cascade/internal/types"
)

func newTestWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.bleve")
	w, err := OpenWriter(path)
	require.NoError(t, err)
	return w, path
}

func TestAddSymbolDocumentIsSearchableFromNewReader(t *testing.T) {
	w, path := newTestWriter(t)
	require.NoError(t, w.AddSymbolDocument(types.SymbolDocument{
		ID:       "sym-1",
		FilePath: "pkg/greet.go",
		Language: "go",
		Name:     "getUserName",
		Kind:     "function",
	}))

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	q := bleve.NewMatchQuery("user")
	res, err := r.Search(q, 10)
	require.NoError(t, err)
	assert.NotZero(t, res.Total)
}

func TestReaderReloadPicksUpWriterCommits(t *testing.T) {
	w, path := newTestWriter(t)
	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	q := bleve.NewMatchQuery("widget")
	res, err := r.Search(q, 10)
	require.NoError(t, err)
	assert.Zero(t, res.Total)

	require.NoError(t, w.AddSymbolDocument(types.SymbolDocument{
		ID: "sym-widget", FilePath: "a.go", Language: "go", Name: "widget", Kind: "type",
	}))

	res, err = r.Search(q, 10)
	require.NoError(t, err)
	assert.Zero(t, res.Total, "reader should not see the write until Reload")

	require.NoError(t, r.Reload())
	res, err = r.Search(q, 10)
	require.NoError(t, err)
	assert.NotZero(t, res.Total)
}

func TestAddSymbolAndFileDocumentsBatch(t *testing.T) {
	w, path := newTestWriter(t)
	require.NoError(t, w.AddSymbolDocumentsBatch([]types.SymbolDocument{
		{ID: "sym-a", FilePath: "a.go", Language: "go", Name: "Alpha", Kind: "function"},
		{ID: "sym-b", FilePath: "a.go", Language: "go", Name: "Beta", Kind: "function"},
	}))
	require.NoError(t, w.AddFileDocumentsBatch([]types.FileDocument{
		{FilePath: "a.go", Language: "go", Content: "func Alpha() {}\nfunc Beta() {}"},
	}))

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	res, err := r.Search(bleve.NewMatchQuery("alpha"), 10)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Total, uint64(1))
}

func TestRemoveByFilePathDeletesBothDocumentKinds(t *testing.T) {
	w, path := newTestWriter(t)
	require.NoError(t, w.AddSymbolDocument(types.SymbolDocument{
		ID: "sym-1", FilePath: "a.go", Language: "go", Name: "Gamma", Kind: "function",
	}))
	require.NoError(t, w.AddFileDocument(types.FileDocument{
		FilePath: "a.go", Language: "go", Content: "func Gamma() {}",
	}))

	require.NoError(t, w.RemoveByFilePath("a.go"))

	r, err := OpenReader(path)
	require.NoError(t, err)
	defer r.Close()
	require.NoError(t, r.Reload())

	q := bleve.NewTermQuery("a.go")
	q.SetField(searchschema.FieldFilePath)
	res, err := r.Search(q, 10)
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestShutdownIsIdempotentAndBlocksFurtherWrites(t *testing.T) {
	w, _ := newTestWriter(t)
	require.NoError(t, w.Shutdown())
	require.NoError(t, w.Shutdown())

	err := w.AddSymbolDocument(types.SymbolDocument{ID: "sym-x", FilePath: "a.go", Name: "X", Kind: "function"})
	assert.ErrorIs(t, err, cascadeerr.ErrShutdown)
}
