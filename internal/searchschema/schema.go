// Package searchschema declares the two-document-kind inverted-index
// layout of spec §4.2: a shared doc_type/id/file_path/language envelope,
// symbol-only fields, and file-only content, with the multi-field
// boosting the query router applies at search time.
package searchschema

import (
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/oxhq/cascade/internal/searchindex/analyzer"
)

// Field name constants shared between index construction and the query
// router.
const (
	FieldDocType    = "doc_type"
	FieldID         = "id"
	FieldFilePath   = "file_path"
	FieldLanguage   = "language"
	FieldName       = "name"
	FieldSignature  = "signature"
	FieldDocComment = "doc_comment"
	FieldCodeBody   = "code_body"
	FieldKind       = "kind"
	FieldStartLine  = "start_line"
	FieldContent    = "content"
)

// Boosts holds the §4.2 field-boost table for symbol search.
var Boosts = struct {
	Name       float64
	Signature  float64
	DocComment float64
	CodeBody   float64
}{
	Name:       5,
	Signature:  3,
	DocComment: 2,
	CodeBody:   1,
}

// SymbolSearchFields lists the fields a symbol-search token is matched
// against, in the order the boosts above apply.
var SymbolSearchFields = []string{FieldName, FieldSignature, FieldDocComment, FieldCodeBody}

// Build returns the bleve index mapping for the two document kinds. Each
// document is indexed under its doc_type value as the bleve "type", with
// `doc_type` itself also stored as a plain field so queries can filter on
// it directly.
func Build() mapping.IndexMapping {
	raw := bleveKeywordMapping()
	codeText := bleveCodeTextMapping(true)
	codeTextUnstored := bleveCodeTextMapping(false)
	numeric := bleveNumericMapping()

	symbolDoc := newDocumentMapping()
	symbolDoc.AddFieldMappingsAt(FieldDocType, raw)
	symbolDoc.AddFieldMappingsAt(FieldID, raw)
	symbolDoc.AddFieldMappingsAt(FieldFilePath, raw)
	symbolDoc.AddFieldMappingsAt(FieldLanguage, raw)
	symbolDoc.AddFieldMappingsAt(FieldName, codeText)
	symbolDoc.AddFieldMappingsAt(FieldSignature, codeText)
	symbolDoc.AddFieldMappingsAt(FieldDocComment, codeText)
	symbolDoc.AddFieldMappingsAt(FieldCodeBody, codeTextUnstored)
	symbolDoc.AddFieldMappingsAt(FieldKind, raw)
	symbolDoc.AddFieldMappingsAt(FieldStartLine, numeric)

	fileDoc := newDocumentMapping()
	fileDoc.AddFieldMappingsAt(FieldDocType, raw)
	fileDoc.AddFieldMappingsAt(FieldFilePath, raw)
	fileDoc.AddFieldMappingsAt(FieldLanguage, raw)
	fileDoc.AddFieldMappingsAt(FieldContent, codeTextUnstored)

	im := newIndexMapping()
	im.AddDocumentMapping("symbol", symbolDoc)
	im.AddDocumentMapping("file", fileDoc)
	im.TypeField = FieldDocType
	im.DefaultAnalyzer = analyzer.Name
	return im
}
