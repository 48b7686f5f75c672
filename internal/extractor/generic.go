package extractor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tsgolang "github.com/smacker/go-tree-sitter/golang"
	tsjava "github.com/smacker/go-tree-sitter/java"
	tsjavascript "github.com/smacker/go-tree-sitter/javascript"
	tspython "github.com/smacker/go-tree-sitter/python"
	tsrust "github.com/smacker/go-tree-sitter/rust"
	tstypescript "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/oxhq/cascade/internal/cascadeerr"
	"github.com/oxhq/cascade/internal/types"
	"github.com/oxhq/cascade/models"
)

// langSpec is one tree-sitter language's query set: a definitions query
// whose captures are named "name.<kind>" (kind drives the Symbol.Kind
// column) and an optional calls query capturing "name.call" at each call
// site, used to populate Identifier rows and, where the callee resolves
// locally, a "calls" Relationship.
type langSpec struct {
	language   string
	extensions []string
	lang       *sitter.Language
	defQuery   string
	callQuery  string
	isExported func(name string) bool
}

var kindByCapture = map[string]types.SymbolKind{
	"function":  types.KindFunction,
	"method":    types.KindMethod,
	"class":     types.KindClass,
	"struct":    types.KindStruct,
	"interface": types.KindInterface,
	"trait":     types.KindTrait,
	"enum":      types.KindEnum,
	"type":      types.KindType,
	"constant":  types.KindConstant,
	"variable":  types.KindVariable,
	"impl":      types.KindClass,
}

func isExportedGoStyle(name string) bool {
	return name != "" && name[0] >= 'A' && name[0] <= 'Z'
}

func isExportedUnderscoreStyle(name string) bool {
	return name != "" && !strings.HasPrefix(name, "_")
}

var genericSpecs = []langSpec{
	{
		language:   "go",
		extensions: []string{".go"},
		lang:       tsgolang.GetLanguage(),
		defQuery: `
			(function_declaration name: (identifier) @name.function)
			(method_declaration name: (field_identifier) @name.method)
			(type_declaration (type_spec name: (type_identifier) @name.type))
			(const_declaration (const_spec name: (identifier) @name.constant))
			(var_declaration (var_spec name: (identifier) @name.variable))
		`,
		callQuery: `
			(call_expression function: (identifier) @name.call)
			(call_expression function: (selector_expression field: (field_identifier) @name.call))
		`,
		isExported: isExportedGoStyle,
	},
	{
		language:   "python",
		extensions: []string{".py"},
		lang:       tspython.GetLanguage(),
		defQuery: `
			(function_definition name: (identifier) @name.function)
			(class_definition name: (identifier) @name.class)
		`,
		callQuery:  `(call function: (identifier) @name.call)`,
		isExported: isExportedUnderscoreStyle,
	},
	{
		language:   "javascript",
		extensions: []string{".js", ".jsx", ".mjs"},
		lang:       tsjavascript.GetLanguage(),
		defQuery: `
			(function_declaration name: (identifier) @name.function)
			(class_declaration name: (identifier) @name.class)
			(method_definition name: (property_identifier) @name.method)
		`,
		callQuery:  `(call_expression function: (identifier) @name.call)`,
		isExported: isExportedUnderscoreStyle,
	},
	{
		language:   "typescript",
		extensions: []string{".ts", ".tsx"},
		lang:       tstypescript.GetLanguage(),
		defQuery: `
			(function_declaration name: (identifier) @name.function)
			(class_declaration name: (identifier) @name.class)
			(method_definition name: (property_identifier) @name.method)
			(interface_declaration name: (type_identifier) @name.interface)
		`,
		callQuery:  `(call_expression function: (identifier) @name.call)`,
		isExported: isExportedUnderscoreStyle,
	},
	{
		language:   "rust",
		extensions: []string{".rs"},
		lang:       tsrust.GetLanguage(),
		defQuery: `
			(function_item name: (identifier) @name.function)
			(struct_item name: (type_identifier) @name.struct)
			(enum_item name: (type_identifier) @name.enum)
			(trait_item name: (type_identifier) @name.trait)
			(impl_item type: (type_identifier) @name.impl)
		`,
		callQuery:  `(call_expression function: (identifier) @name.call)`,
		isExported: isExportedUnderscoreStyle,
	},
	{
		language:   "java",
		extensions: []string{".java"},
		lang:       tsjava.GetLanguage(),
		defQuery: `
			(class_declaration name: (identifier) @name.class)
			(interface_declaration name: (identifier) @name.interface)
			(method_declaration name: (identifier) @name.method)
		`,
		callQuery:  `(method_invocation name: (identifier) @name.call)`,
		isExported: func(name string) bool { return true },
	},
}

// GenericExtractor walks a tree-sitter parse tree using a fixed set of
// definition/call queries for one language (spec §4.6's "tagged dispatch
// by language, one worked extractor per supported grammar").
type GenericExtractor struct {
	spec   langSpec
	parser *sitter.Parser
}

// NewGenericExtractors returns one GenericExtractor per language this
// build has a tree-sitter grammar wired in for.
func NewGenericExtractors() []*GenericExtractor {
	out := make([]*GenericExtractor, 0, len(genericSpecs))
	for _, spec := range genericSpecs {
		parser := sitter.NewParser()
		parser.SetLanguage(spec.lang)
		out = append(out, &GenericExtractor{spec: spec, parser: parser})
	}
	return out
}

func (g *GenericExtractor) Language() string     { return g.spec.language }
func (g *GenericExtractor) Extensions() []string { return g.spec.extensions }

// Extract parses source and emits every definition, local call edge, and
// raw identifier occurrence the queries find.
func (g *GenericExtractor) Extract(workspaceID, path string, source []byte) (Result, error) {
	tree, err := g.parser.ParseCtx(context.Background(), nil, source)
	if err != nil || tree == nil {
		return Result{}, cascadeerr.Wrap(cascadeerr.ErrParse, path, err)
	}
	defer tree.Close()
	root := tree.RootNode()

	defs := g.runQuery(g.spec.defQuery, root, source)
	sort.Slice(defs, func(i, j int) bool { return defs[i].node.StartByte() < defs[j].node.StartByte() })

	symbols := make([]models.Symbol, 0, len(defs))
	symbolIDByStart := make(map[uint32]string, len(defs))
	nameIndex := make(map[string][]string) // name -> symbol IDs defined in this file

	for _, d := range defs {
		kind, ok := kindByCapture[d.kind]
		if !ok {
			continue
		}
		name := d.node.Content(source)
		defNode := d.node
		for defNode.Parent() != nil && !isDefinitionNode(defNode.Parent().Type()) {
			defNode = defNode.Parent()
		}
		if defNode.Parent() != nil {
			defNode = defNode.Parent()
		}
		id := deterministicID(workspaceID, path, name, string(kind), defNode.StartByte())
		visibility := "private"
		if g.spec.isExported(name) {
			visibility = "public"
		}
		sig := firstLine(string(source[defNode.StartByte():defNode.EndByte()]))
		doc := precedingComment(defNode, source)

		sym := models.Symbol{
			ID:          id,
			WorkspaceID: workspaceID,
			FilePath:    path,
			Name:        name,
			Kind:        string(kind),
			Language:    g.spec.language,
			StartLine:   int(defNode.StartPoint().Row) + 1,
			StartCol:    int(defNode.StartPoint().Column) + 1,
			EndLine:     int(defNode.EndPoint().Row) + 1,
			EndCol:      int(defNode.EndPoint().Column) + 1,
			StartByte:   int(defNode.StartByte()),
			EndByte:     int(defNode.EndByte()),
			Visibility:  &visibility,
			Confidence:  1.0,
		}
		if sig != "" {
			sym.Signature = &sig
		}
		if doc != "" {
			sym.DocComment = &doc
		}
		symbols = append(symbols, sym)
		symbolIDByStart[defNode.StartByte()] = id
		nameIndex[name] = append(nameIndex[name], id)
	}

	relationships := assignContainment(workspaceID, path, defs, symbolIDByStart)

	if g.spec.callQuery != "" {
		calls := g.runQuery(g.spec.callQuery, root, source)
		idents := make([]models.Identifier, 0, len(calls))
		for _, c := range calls {
			name := c.node.Content(source)
			id := deterministicID(workspaceID, path, name, "call", c.node.StartByte())
			idents = append(idents, models.Identifier{
				ID:          id,
				WorkspaceID: workspaceID,
				Name:        name,
				Kind:        string(types.IdentifierCall),
				Language:    g.spec.language,
				FilePath:    path,
				StartLine:   int(c.node.StartPoint().Row) + 1,
				StartCol:    int(c.node.StartPoint().Column) + 1,
				EndLine:     int(c.node.EndPoint().Row) + 1,
				EndCol:      int(c.node.EndPoint().Column) + 1,
				StartByte:   int(c.node.StartByte()),
				EndByte:     int(c.node.EndByte()),
				Confidence:  0.7,
			})
			if targets, ok := nameIndex[name]; ok && len(targets) == 1 {
				fromID := enclosingSymbolID(c.node, symbolIDByStart)
				if fromID != "" && fromID != targets[0] {
					relationships = append(relationships, models.Relationship{
						ID:           deterministicID(workspaceID, path, fromID+"->"+targets[0], "calls", c.node.StartByte()),
						WorkspaceID:  workspaceID,
						FromSymbolID: fromID,
						ToSymbolID:   targets[0],
						Kind:         string(types.RelCalls),
						FilePath:     path,
						LineNumber:   int(c.node.StartPoint().Row) + 1,
						Confidence:   0.6,
					})
				}
			}
		}
		return Result{Symbols: symbols, Relationships: relationships, Identifiers: idents, Content: string(source)}, nil
	}

	return Result{Symbols: symbols, Relationships: relationships, Content: string(source)}, nil
}

type queryMatch struct {
	kind string
	node *sitter.Node
}

func (g *GenericExtractor) runQuery(pattern string, root *sitter.Node, source []byte) []queryMatch {
	if pattern == "" {
		return nil
	}
	q, err := sitter.NewQuery([]byte(pattern), g.spec.lang)
	if err != nil {
		return nil
	}
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	var out []queryMatch
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			name := q.CaptureNameForId(c.Index)
			parts := strings.SplitN(name, ".", 2)
			kind := "call"
			if len(parts) == 2 {
				kind = parts[1]
			}
			if c.Node.Content(source) == "" {
				continue
			}
			out = append(out, queryMatch{kind: kind, node: c.Node})
		}
	}
	return out
}

// isDefinitionNode reports whether a node type is one of the outer
// declaration node types whose full span (including modifiers/keywords)
// should be stored as the symbol's code body, rather than just the bare
// name identifier the query captured.
func isDefinitionNode(t string) bool {
	switch t {
	case "function_declaration", "method_declaration", "type_declaration",
		"const_declaration", "var_declaration", "function_definition",
		"class_definition", "class_declaration", "method_definition",
		"interface_declaration", "function_item", "struct_item", "enum_item",
		"trait_item", "impl_item":
		return true
	}
	return false
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// precedingComment returns the text of a comment node immediately before
// node among its parent's siblings, if any.
func precedingComment(node *sitter.Node, source []byte) string {
	parent := node.Parent()
	if parent == nil {
		return ""
	}
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		child := parent.NamedChild(i)
		if child == node && i > 0 {
			prev := parent.NamedChild(i - 1)
			if prev != nil && strings.Contains(prev.Type(), "comment") {
				return strings.TrimSpace(prev.Content(source))
			}
		}
	}
	return ""
}

// assignContainment emits a "contains" Relationship from each definition
// to every other definition nested inside its byte range, one level deep
// (the nearest enclosing definition only), using a start-byte-ordered
// stack so it runs in O(n).
func assignContainment(workspaceID, path string, defs []queryMatch, symbolIDByStart map[uint32]string) []models.Relationship {
	type frame struct {
		id  string
		end uint32
	}
	var stack []frame
	var rels []models.Relationship

	for _, d := range defs {
		defNode := d.node
		for defNode.Parent() != nil && !isDefinitionNode(defNode.Parent().Type()) {
			defNode = defNode.Parent()
		}
		if defNode.Parent() != nil {
			defNode = defNode.Parent()
		}
		id, ok := symbolIDByStart[defNode.StartByte()]
		if !ok {
			continue
		}
		for len(stack) > 0 && defNode.StartByte() >= stack[len(stack)-1].end {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 && stack[len(stack)-1].id != id {
			parent := stack[len(stack)-1]
			rels = append(rels, models.Relationship{
				ID:           deterministicID(workspaceID, path, parent.id+">"+id, "contains", d.node.StartByte()),
				WorkspaceID:  workspaceID,
				FromSymbolID: parent.id,
				ToSymbolID:   id,
				Kind:         string(types.RelContains),
				FilePath:     path,
				LineNumber:   int(defNode.StartPoint().Row) + 1,
				Confidence:   1.0,
			})
		}
		stack = append(stack, frame{id: id, end: defNode.EndByte()})
	}
	return rels
}

// enclosingSymbolID finds the nearest definition whose byte range
// contains node, by walking up the tree looking for a start byte present
// in symbolIDByStart.
func enclosingSymbolID(node *sitter.Node, symbolIDByStart map[uint32]string) string {
	for n := node; n != nil; n = n.Parent() {
		if id, ok := symbolIDByStart[n.StartByte()]; ok {
			return id
		}
	}
	return ""
}

func deterministicID(parts ...interface{}) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte("|"))
		fmt.Fprint(h, p)
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)[:32]
}
