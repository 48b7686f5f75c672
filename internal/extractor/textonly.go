package extractor

// TextOnlyExtractor handles languages with no tree-sitter grammar wired
// in (markup/style/data languages such as HTML, CSS, JSON, Markdown).
// It emits no symbols or relationships, only the raw content needed for
// the file-kind inverted-index document and content search (spec §4.6:
// "every discovered file gets at least a file-kind document, regardless
// of whether a symbol extractor exists for its language").
type TextOnlyExtractor struct {
	language   string
	extensions []string
}

// NewTextOnlyExtractor builds a no-op extractor for the given language
// and extension set.
func NewTextOnlyExtractor(language string, extensions []string) *TextOnlyExtractor {
	return &TextOnlyExtractor{language: language, extensions: extensions}
}

func (t *TextOnlyExtractor) Language() string     { return t.language }
func (t *TextOnlyExtractor) Extensions() []string { return t.extensions }

func (t *TextOnlyExtractor) Extract(workspaceID, path string, source []byte) (Result, error) {
	return Result{Content: string(source)}, nil
}

// DefaultTextOnly returns the extractors registered for languages this
// build carries no tree-sitter grammar for: html, css, markdown, json,
// yaml, csharp, and a generic "text" catch-all for everything else
// SetFallback routes here.
func DefaultTextOnly() []*TextOnlyExtractor {
	return []*TextOnlyExtractor{
		NewTextOnlyExtractor("html", []string{".html", ".htm"}),
		NewTextOnlyExtractor("css", []string{".css", ".scss", ".sass"}),
		NewTextOnlyExtractor("markdown", []string{".md", ".markdown"}),
		NewTextOnlyExtractor("json", []string{".json"}),
		NewTextOnlyExtractor("yaml", []string{".yaml", ".yml"}),
		NewTextOnlyExtractor("csharp", []string{".cs"}),
		NewTextOnlyExtractor("text", nil),
	}
}

// Default builds the factory used in production: every GenericExtractor
// language plus the text-only set, with the bare "text" extractor (no
// extensions, matched only as fallback) set as the default.
func Default() *Factory {
	f := NewFactory()
	for _, g := range NewGenericExtractors() {
		f.Register(g)
	}
	var fallback *TextOnlyExtractor
	for _, t := range DefaultTextOnly() {
		if len(t.Extensions()) == 0 {
			fallback = t
			continue
		}
		f.Register(t)
	}
	if fallback != nil {
		f.SetFallback(fallback)
	}
	return f
}
