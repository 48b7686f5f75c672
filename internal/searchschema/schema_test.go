package searchschema

import (
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProducesUsableBleveIndex(t *testing.T) {
	idx, err := bleve.NewUsing(t.TempDir()+"/schema.bleve", Build(), bleve.Config.DefaultIndexType, bleve.Config.DefaultKVStore, nil)
	require.NoError(t, err)
	defer idx.Close()

	err = idx.Index("sym-1", map[string]interface{}{
		FieldDocType:   "symbol",
		FieldID:        "sym-1",
		FieldFilePath:  "pkg/greet.go",
		FieldLanguage:  "go",
		FieldName:      "getUserName",
		FieldSignature: "func getUserName() string",
		FieldKind:      "function",
		FieldStartLine: 12,
	})
	require.NoError(t, err)

	err = idx.Index("file-1", map[string]interface{}{
		FieldDocType:  "file",
		FieldFilePath: "pkg/greet.go",
		FieldLanguage: "go",
		FieldContent:  "func getUserName() string { return name }",
	})
	require.NoError(t, err)

	result, err := idx.Search(bleve.NewSearchRequest(bleve.NewMatchQuery("user")))
	require.NoError(t, err)
	assert.NotZero(t, result.Total)

	docTypeQ := bleve.NewTermQuery("symbol")
	docTypeQ.SetField(FieldDocType)
	onlySymbols := bleve.NewConjunctionQuery(bleve.NewMatchQuery("user"), docTypeQ)
	result, err = idx.Search(bleve.NewSearchRequest(onlySymbols))
	require.NoError(t, err)
	for _, hit := range result.Hits {
		assert.Equal(t, "sym-1", hit.ID)
	}
}

func TestSymbolSearchFieldsOrderMatchesBoostTable(t *testing.T) {
	require.Equal(t, []string{FieldName, FieldSignature, FieldDocComment, FieldCodeBody}, SymbolSearchFields)
	assert.Greater(t, Boosts.Name, Boosts.Signature)
	assert.Greater(t, Boosts.Signature, Boosts.DocComment)
	assert.Greater(t, Boosts.DocComment, Boosts.CodeBody)
}
