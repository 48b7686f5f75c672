// Package langconfig holds the per-language tokenizer and scoring
// configuration of spec §4.1/§4.2/§4.9: preserve patterns, meaningful
// affixes, variant prefixes/suffixes, and important-pattern score boosts.
// The registry is built once at process start and never mutated
// afterward (spec §9's "global configuration" note).
package langconfig

// Profile is one language's tokenizer/scoring configuration.
type Profile struct {
	Language          string
	PreservePatterns  []string
	MeaningfulAffixes []string
	VariantPrefixes   []string
	VariantSuffixes   []string
	ImportantPatterns []string
}

// Config is the interface the tokenizer depends on: the union of
// preserve-patterns/affixes across whatever set of languages an index was
// built with. Registry satisfies it directly.
type Config interface {
	PreservePatterns() []string
	MeaningfulAffixes() []string
	VariantPrefixes() []string
	VariantSuffixes() []string
}

// Registry is the process-wide, immutable set of language profiles. Build
// it once with NewRegistry and never mutate it afterward.
type Registry struct {
	profiles map[string]Profile

	// cached unions, computed once at construction.
	preserve   []string
	affixes    []string
	varPrefix  []string
	varSuffix  []string
}

// NewRegistry builds a Registry from the given profiles, indexed by
// Profile.Language.
func NewRegistry(profiles ...Profile) *Registry {
	r := &Registry{profiles: make(map[string]Profile, len(profiles))}
	seenPreserve := map[string]bool{}
	seenAffix := map[string]bool{}
	seenVP := map[string]bool{}
	seenVS := map[string]bool{}

	for _, p := range profiles {
		r.profiles[p.Language] = p
		for _, pat := range p.PreservePatterns {
			if !seenPreserve[pat] {
				seenPreserve[pat] = true
				r.preserve = append(r.preserve, pat)
			}
		}
		for _, a := range p.MeaningfulAffixes {
			if !seenAffix[a] {
				seenAffix[a] = true
				r.affixes = append(r.affixes, a)
			}
		}
		for _, a := range p.VariantPrefixes {
			if !seenVP[a] {
				seenVP[a] = true
				r.varPrefix = append(r.varPrefix, a)
			}
		}
		for _, a := range p.VariantSuffixes {
			if !seenVS[a] {
				seenVS[a] = true
				r.varSuffix = append(r.varSuffix, a)
			}
		}
	}
	return r
}

func (r *Registry) PreservePatterns() []string  { return r.preserve }
func (r *Registry) MeaningfulAffixes() []string { return r.affixes }
func (r *Registry) VariantPrefixes() []string   { return r.varPrefix }
func (r *Registry) VariantSuffixes() []string   { return r.varSuffix }

// ForLanguage returns the profile registered for lang, and whether one
// was found.
func (r *Registry) ForLanguage(lang string) (Profile, bool) {
	p, ok := r.profiles[lang]
	return p, ok
}

// ImportantPatterns returns the important-pattern boost list for lang,
// used by the query router's §4.9 step 5 rescoring.
func (r *Registry) ImportantPatterns(lang string) []string {
	if p, ok := r.profiles[lang]; ok {
		return p.ImportantPatterns
	}
	return nil
}

// Default returns the shipped registry covering the languages named
// literally in spec §4.1/§4.9/§8 (go, rust, typescript, javascript,
// python, java, csharp).
func Default() *Registry {
	return NewRegistry(
		Profile{
			Language:          "go",
			PreservePatterns:  []string{"::", "->", ":=", "<-", "&&", "||", "=="},
			MeaningfulAffixes: []string{"Is", "Has", "Get", "Set"},
			VariantPrefixes:   []string{"I", "_"},
			VariantSuffixes:   []string{"Service", "Controller", "Impl"},
			ImportantPatterns: []string{"func (", "type ", "interface {"},
		},
		Profile{
			Language:          "rust",
			PreservePatterns:  []string{"::", "->", "?.", "??", "=>", "&&", "||", "=="},
			MeaningfulAffixes: []string{"is_", "has_", "_mut", "_ref", "get_", "set_"},
			VariantPrefixes:   []string{"_"},
			VariantSuffixes:   []string{"_impl", "_trait"},
			ImportantPatterns: []string{"pub fn", "pub struct", "pub trait", "pub enum"},
		},
		Profile{
			Language:          "typescript",
			PreservePatterns:  []string{"?.", "??", "=>", "===", "!==", "&&", "||"},
			MeaningfulAffixes: []string{"is", "has", "get", "set"},
			VariantPrefixes:   []string{"I", "_"},
			VariantSuffixes:   []string{"Service", "Controller", "Component"},
			ImportantPatterns: []string{"export function", "export class", "export interface", "public "},
		},
		Profile{
			Language:          "javascript",
			PreservePatterns:  []string{"?.", "??", "=>", "===", "!==", "&&", "||"},
			MeaningfulAffixes: []string{"is", "has", "get", "set"},
			VariantPrefixes:   []string{"_"},
			VariantSuffixes:   []string{"Service", "Controller"},
			ImportantPatterns: []string{"export function", "export class", "module.exports"},
		},
		Profile{
			Language:          "python",
			PreservePatterns:  []string{"->", ":=", "==", "!=", "**"},
			MeaningfulAffixes: []string{"is_", "has_", "_mut", "get_", "set_", "__"},
			VariantPrefixes:   []string{"_", "__"},
			VariantSuffixes:   []string{"Mixin", "Base"},
			ImportantPatterns: []string{"def ", "class ", "async def "},
		},
		Profile{
			Language:          "java",
			PreservePatterns:  []string{"::", "->", "==", "&&", "||"},
			MeaningfulAffixes: []string{"is", "has", "get", "set"},
			VariantPrefixes:   []string{"I", "_"},
			VariantSuffixes:   []string{"Service", "Controller", "Impl", "Factory"},
			ImportantPatterns: []string{"public class", "public interface", "public enum", "@Override"},
		},
		Profile{
			Language:          "csharp",
			PreservePatterns:  []string{"::", "->", "?.", "??", "=>", "&&", "||"},
			MeaningfulAffixes: []string{"Is", "Has", "Get", "Set"},
			VariantPrefixes:   []string{"I", "_"},
			VariantSuffixes:   []string{"Service", "Controller", "Impl"},
			ImportantPatterns: []string{"public class", "public interface", "public override"},
		},
	)
}
