// Package analyzer adapts the code-aware tokenizer (internal/tokenizer)
// into a bleve analysis.Analyzer, registered under Name so the schema can
// reference it by string the way bleve's mapping API expects (spec §4.2:
// "text fields that participate in fuzzy matching use the code-aware
// tokenizer").
package analyzer

import (
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"

	"github.com/oxhq/cascade/internal/langconfig"
	"github.com/oxhq/cascade/internal/tokenizer"
)

// Name is the analyzer name registered with bleve's global registry.
const Name = "cascade_code"

func init() {
	registry.RegisterAnalyzer(Name, func(config map[string]any, cache *registry.Cache) (analysis.Analyzer, error) {
		return &analysis.DefaultAnalyzer{Tokenizer: newCodeTokenizer()}, nil
	})
}

// codeTokenizer satisfies bleve's analysis.Tokenizer by delegating to the
// spec-defined code tokenizer. It carries no token filters: the code
// tokenizer already lowercases and fans out CamelCase/snake_case/affix
// variants itself, so there is nothing left for bleve's filter chain to
// do.
type codeTokenizer struct {
	t *tokenizer.Tokenizer
}

func newCodeTokenizer() *codeTokenizer {
	return &codeTokenizer{t: tokenizer.New(langconfig.Default())}
}

// Tokenize implements analysis.Tokenizer.
func (c *codeTokenizer) Tokenize(input []byte) analysis.TokenStream {
	tokens := c.t.Tokenize(string(input))
	stream := make(analysis.TokenStream, 0, len(tokens))
	for i, tok := range tokens {
		stream = append(stream, &analysis.Token{
			Start:    tok.Start,
			End:      tok.End,
			Term:     []byte(tok.Text),
			Position: i + 1,
			Type:     analysis.AlphaNumeric,
		})
	}
	return stream
}
