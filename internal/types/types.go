// Package types holds domain enums and the lean index-projection structs
// (SymbolDocument / FileDocument) that are derived from, and rebuildable
// from, the Symbol Database. Nothing in this package is authoritative.
package types

// SymbolKind enumerates the kinds a Symbol can take (spec §3).
type SymbolKind string

const (
	KindFunction    SymbolKind = "function"
	KindMethod      SymbolKind = "method"
	KindClass       SymbolKind = "class"
	KindStruct      SymbolKind = "struct"
	KindInterface   SymbolKind = "interface"
	KindTrait       SymbolKind = "trait"
	KindEnum        SymbolKind = "enum"
	KindEnumMember  SymbolKind = "enum_member"
	KindProperty    SymbolKind = "property"
	KindField       SymbolKind = "field"
	KindVariable    SymbolKind = "variable"
	KindConstant    SymbolKind = "constant"
	KindModule      SymbolKind = "module"
	KindNamespace   SymbolKind = "namespace"
	KindImport      SymbolKind = "import"
	KindType        SymbolKind = "type"
)

// Visibility enumerates the three visibility levels a Symbol may declare.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
)

// RelationshipKind enumerates the directed-edge kinds between two symbols
// (spec §3).
type RelationshipKind string

const (
	RelCalls      RelationshipKind = "calls"
	RelReferences RelationshipKind = "references"
	RelUses       RelationshipKind = "uses"
	RelImports    RelationshipKind = "imports"
	RelImplements RelationshipKind = "implements"
	RelExtends    RelationshipKind = "extends"
	RelParameter  RelationshipKind = "parameter"
	RelReturns    RelationshipKind = "returns"
	RelContains   RelationshipKind = "contains"
)

// IdentifierKind enumerates the occurrence kinds a raw identifier row may
// record (spec §3, "Identifier (reference-site)").
type IdentifierKind string

const (
	IdentifierCall      IdentifierKind = "call"
	IdentifierReference IdentifierKind = "reference"
	IdentifierTypeUse   IdentifierKind = "type_use"
)

// WorkspaceType distinguishes the one primary workspace a process operates
// on from zero or more isolated reference workspaces.
type WorkspaceType string

const (
	WorkspacePrimary   WorkspaceType = "primary"
	WorkspaceReference WorkspaceType = "reference"
)

// Doc-kind values stored in the inverted index's doc_type field (spec §4.2).
const (
	DocTypeSymbol = "symbol"
	DocTypeFile   = "file"
)

// SymbolDocument is the inverted-index projection of a Symbol (spec §4.4).
// It is not authoritative: deleting it never loses information because it
// is rebuilt from the Symbol Database's rows.
type SymbolDocument struct {
	DocType     string `json:"doc_type"`
	ID          string `json:"id"`
	FilePath    string `json:"file_path"`
	Language    string `json:"language"`
	Name        string `json:"name"`
	Signature   string `json:"signature"`
	DocComment  string `json:"doc_comment"`
	CodeBody    string `json:"code_body"`
	Kind        string `json:"kind"`
	StartLine   uint64 `json:"start_line"`
}

// FileDocument is the inverted-index projection of a File (spec §4.4).
type FileDocument struct {
	DocType  string `json:"doc_type"`
	FilePath string `json:"file_path"`
	Language string `json:"language"`
	Content  string `json:"content"`
}

// Filters scopes a symbol or content search (spec §4.9).
type Filters struct {
	Language      string
	SymbolKind    string
	FileGlob      string
	WorkspaceID   string
}

// SearchIntent classifies what a query surface is asking for (spec §4.9).
type SearchIntent string

const (
	IntentDefinitions   SearchIntent = "definitions"
	IntentContent       SearchIntent = "content"
	IntentExactSymbol   SearchIntent = "exact_symbol"
	IntentGenericType   SearchIntent = "generic_type"
	IntentOperatorUse   SearchIntent = "operator_search"
	IntentFilePath      SearchIntent = "file_path"
	IntentSemantic      SearchIntent = "semantic_concept"
	IntentMixed         SearchIntent = "mixed"
)
