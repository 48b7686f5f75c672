package searchschema

import (
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/oxhq/cascade/internal/searchindex/analyzer"
)

// bleveKeywordMapping mirrors spec §4.2's "raw" field kind: the field is
// indexed and stored verbatim with bleve's built-in keyword analyzer,
// which performs no tokenization at all.
func bleveKeywordMapping() *mapping.FieldMapping {
	fm := mapping.NewTextFieldMapping()
	fm.Analyzer = keyword.Name
	fm.Store = true
	fm.Index = true
	fm.IncludeInAll = false
	return fm
}

// bleveCodeTextMapping is a field indexed with the code-aware analyzer
// (§4.1's tokenizer wired into bleve, see internal/searchindex/analyzer).
// stored controls whether the field value is retrievable from a hit —
// spec §4.2 mandates code_body/content are NOT stored, since both are
// recoverable from the Symbol Database.
func bleveCodeTextMapping(stored bool) *mapping.FieldMapping {
	fm := mapping.NewTextFieldMapping()
	fm.Analyzer = analyzer.Name
	fm.Store = stored
	fm.Index = true
	fm.IncludeTermVectors = true
	return fm
}

func bleveNumericMapping() *mapping.FieldMapping {
	fm := mapping.NewNumericFieldMapping()
	fm.Store = true
	fm.Index = true
	return fm
}

func newDocumentMapping() *mapping.DocumentMapping {
	dm := mapping.NewDocumentMapping()
	dm.Dynamic = false
	return dm
}

func newIndexMapping() *mapping.IndexMappingImpl {
	im := mapping.NewIndexMapping()
	return im
}
