// Package vocab loads and compiles the allergen vocabulary pack from the
// embedded rules.json: per-class keyword/product/exclusion sets, the OCR
// substitution table, phrase rewrites, and the signal word lists used by
// the scorer and classifier. Everything is compiled and validated once at
// load time; a malformed or missing class entry is a fatal configuration
// error, never a silent gap
package vocab

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"labelscan/internal/core/allergen"
)

//go:embed rules.json
var embedded []byte

// FuzzyThreshold is the minimum Ratcliff-Obershelp similarity at which
// an unknown token is rewritten to its closest canonical term
const FuzzyThreshold = 0.65

type rawEntry struct {
	Class         string   `json:"class"`
	Keywords      []string `json:"keywords"`
	Products      []string `json:"products"`
	Exclusions    []string `json:"exclusions,omitempty"`
	AmbiguousTerm string   `json:"ambiguous_term,omitempty"`
}

type rawRewrite struct {
	Pattern string `json:"pattern"`
	Replace string `json:"replace"`
}

type rawPack struct {
	Version       int               `json:"version"`
	Classes       []rawEntry        `json:"classes"`
	Rewrites      []rawRewrite      `json:"rewrites"`
	Substitutions map[string]string `json:"substitutions"`
	PhraseSubs    map[string]string `json:"phrase_substitutions"`
	Fuzzy         struct {
		Terms []string `json:"terms"`
		Skip  []string `json:"skip"`
	} `json:"fuzzy"`
	Signals struct {
		IngredientMarkers []string `json:"ingredient_markers"`
		FoodWords         []string `json:"food_words"`
		NutritionTerms    []string `json:"nutrition_terms"`
		MetadataTerms     []string `json:"metadata_terms"`
	} `json:"signals"`
	Sections struct {
		MayContainTriggers   []string `json:"may_contain_triggers"`
		NonIngredientMarkers []string `json:"non_ingredient_markers"`
		InstructionTerms     []string `json:"instruction_terms"`
		IngredientLanguage   []string `json:"ingredient_language"`
	} `json:"sections"`
	Confidence struct {
		AmbiguityTerms     []string `json:"ambiguity_terms"`
		DeclarationPhrases []string `json:"declaration_phrases"`
		CloseNegations     []string `json:"close_negations"`
	} `json:"confidence"`
	Compounds           map[string][]string `json:"compounds"`
	SubstituteSensitive []string            `json:"substitute_sensitive"`
}

// Entry is the compiled vocabulary for one allergen class.
// Keywords and Products keep their declared order; the classifier stops
// at the first accepted match per class per section
type Entry struct {
	Class      allergen.Class
	Keywords   []string
	Products   []string
	Exclusions []string

	// AmbiguousTerm is a bare term (e.g. "fish") that is only matched
	// when no exclusion term is present in the section. Empty for most
	// classes
	AmbiguousTerm string
}

// Terms returns keywords followed by products, the scan order
func (e *Entry) Terms() []string {
	out := make([]string, 0, len(e.Keywords)+len(e.Products))
	out = append(out, e.Keywords...)
	out = append(out, e.Products...)
	return out
}

// Rewrite is one compiled phrase-rewrite rule. Order matters: later
// rules assume earlier rewrites already happened
type Rewrite struct {
	Re      *regexp.Regexp
	Replace string
}

// PhraseSub is a compiled multi-word OCR substitution
type PhraseSub struct {
	Re      *regexp.Regexp
	Replace string
}

// Signals holds the context-scorer word lists
type Signals struct {
	IngredientMarkers []string
	FoodWords         []string
	NutritionTerms    []string
	MetadataTerms     []string
}

// Sections holds the splitter and instruction-guard vocabularies
type Sections struct {
	// Trigger matches the start of a may-contain / trace section
	Trigger *regexp.Regexp
	// NonIngredientMarkers trim the may-contain section tail
	NonIngredientMarkers []string
	// InstructionTerms flag storage/dating text for the CONTAINS guard
	InstructionTerms []string
	// IngredientLanguage overrides the instruction guard
	IngredientLanguage []string
}

// Confidence holds the classifier confidence modifiers
type Confidence struct {
	AmbiguityTerms     []string
	DeclarationPhrases []string
	CloseNegations     []string
}

// Pack is the compiled vocabulary configuration. Read-only after Load;
// safe for concurrent use
type Pack struct {
	Version int

	Entries []Entry
	byClass map[allergen.Class]*Entry

	Rewrites   []Rewrite
	TokenSubs  map[string]string // chain-resolved single-token substitutions
	PhraseSubs []PhraseSub

	FuzzyTerms []string
	FuzzySkip  map[string]struct{}

	Signals    Signals
	Sections   Sections
	Confidence Confidence

	// Compounds maps a matched keyword to phrases whose presence in the
	// local context marks the match as a compound-word false positive
	Compounds map[string][]string

	// SubstituteSensitive keywords are rejected when "substitute"
	// appears in the local context (milk-substitute phrasing)
	SubstituteSensitive map[string]struct{}

	// NumberUnit matches a number immediately followed by a mass/volume
	// unit, used by the context scorer
	NumberUnit *regexp.Regexp
}

// Entry returns the vocabulary for c, or nil if none is declared
func (p *Pack) Entry(c allergen.Class) *Entry {
	return p.byClass[c]
}

// SubstitutionCount reports how many OCR substitutions the pack carries
// (token plus phrase forms)
func (p *Pack) SubstitutionCount() int {
	return len(p.TokenSubs) + len(p.PhraseSubs)
}

// Load parses, compiles, and validates the embedded rules.json
func Load() (*Pack, error) {
	var rp rawPack
	if err := json.Unmarshal(embedded, &rp); err != nil {
		return nil, fmt.Errorf("vocab: parse rules.json: %w", err)
	}
	if rp.Version != 1 {
		return nil, fmt.Errorf("vocab: unsupported rules.json version %d (want 1)", rp.Version)
	}

	p := &Pack{
		Version:             rp.Version,
		byClass:             make(map[allergen.Class]*Entry, len(rp.Classes)),
		FuzzySkip:           make(map[string]struct{}, len(rp.Fuzzy.Skip)),
		Compounds:           make(map[string][]string, len(rp.Compounds)),
		SubstituteSensitive: make(map[string]struct{}, len(rp.SubstituteSensitive)),
		NumberUnit:          regexp.MustCompile(`\d+\s*[gm][gl]?\b`),
	}

	// Classes: every known class must be declared exactly once with a
	// non-empty term set
	for _, re := range rp.Classes {
		c := allergen.Class(strings.ToUpper(strings.TrimSpace(re.Class)))
		if !allergen.Known(c) {
			return nil, fmt.Errorf("vocab: unknown class %q", re.Class)
		}
		if _, dup := p.byClass[c]; dup {
			return nil, fmt.Errorf("vocab: duplicate class %q", c)
		}
		e := Entry{
			Class:         c,
			Keywords:      lowerAll(re.Keywords),
			Products:      lowerAll(re.Products),
			Exclusions:    lowerAll(re.Exclusions),
			AmbiguousTerm: strings.ToLower(strings.TrimSpace(re.AmbiguousTerm)),
		}
		if len(e.Keywords)+len(e.Products) == 0 {
			return nil, fmt.Errorf("vocab: class %q has no keywords or products", c)
		}
		p.byClass[c] = nil // mark seen; pointers fixed up below
		p.Entries = append(p.Entries, e)
	}
	// index only after Entries stops growing
	for i := range p.Entries {
		p.byClass[p.Entries[i].Class] = &p.Entries[i]
	}
	for _, c := range allergen.Classes() {
		if _, ok := p.byClass[c]; !ok {
			return nil, fmt.Errorf("vocab: class %q missing from rules.json", c)
		}
	}

	// Phrase rewrites, compiled in declared order
	for _, rw := range rp.Rewrites {
		re, err := regexp.Compile(rw.Pattern)
		if err != nil {
			return nil, fmt.Errorf("vocab: compile rewrite %q: %w", rw.Pattern, err)
		}
		p.Rewrites = append(p.Rewrites, Rewrite{Re: re, Replace: rw.Replace})
	}

	// Token substitutions, chains resolved to a fixpoint so a single
	// normalize pass lands on the final form (idempotence)
	subs, err := resolveChains(rp.Substitutions)
	if err != nil {
		return nil, err
	}
	p.TokenSubs = subs

	// Multi-word substitutions compiled with word boundaries
	for variant, canon := range rp.PhraseSubs {
		variant = strings.ToLower(strings.TrimSpace(variant))
		if variant == "" {
			continue
		}
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(variant) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("vocab: compile phrase substitution %q: %w", variant, err)
		}
		p.PhraseSubs = append(p.PhraseSubs, PhraseSub{Re: re, Replace: strings.ToLower(canon)})
	}

	// Fuzzy vocabulary
	p.FuzzyTerms = lowerAll(rp.Fuzzy.Terms)
	if len(p.FuzzyTerms) == 0 {
		return nil, fmt.Errorf("vocab: empty fuzzy term list")
	}
	for _, s := range rp.Fuzzy.Skip {
		p.FuzzySkip[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	p.Signals = Signals{
		IngredientMarkers: lowerAll(rp.Signals.IngredientMarkers),
		FoodWords:         lowerAll(rp.Signals.FoodWords),
		NutritionTerms:    lowerAll(rp.Signals.NutritionTerms),
		MetadataTerms:     lowerAll(rp.Signals.MetadataTerms),
	}
	if len(p.Signals.IngredientMarkers) == 0 {
		return nil, fmt.Errorf("vocab: empty ingredient marker list")
	}

	if len(rp.Sections.MayContainTriggers) == 0 {
		return nil, fmt.Errorf("vocab: empty may-contain trigger list")
	}
	trig, err := regexp.Compile("(?:" + strings.Join(rp.Sections.MayContainTriggers, ")|(?:") + ")")
	if err != nil {
		return nil, fmt.Errorf("vocab: compile section triggers: %w", err)
	}
	p.Sections = Sections{
		Trigger:              trig,
		NonIngredientMarkers: lowerAll(rp.Sections.NonIngredientMarkers),
		InstructionTerms:     lowerAll(rp.Sections.InstructionTerms),
		IngredientLanguage:   lowerAll(rp.Sections.IngredientLanguage),
	}

	p.Confidence = Confidence{
		AmbiguityTerms:     lowerAll(rp.Confidence.AmbiguityTerms),
		DeclarationPhrases: lowerAll(rp.Confidence.DeclarationPhrases),
		CloseNegations:     lowerAll(rp.Confidence.CloseNegations),
	}

	for kw, phrases := range rp.Compounds {
		p.Compounds[strings.ToLower(strings.TrimSpace(kw))] = lowerAll(phrases)
	}
	for _, kw := range rp.SubstituteSensitive {
		p.SubstituteSensitive[strings.ToLower(strings.TrimSpace(kw))] = struct{}{}
	}

	return p, nil
}

// resolveChains lowercases the substitution table and follows
// variant -> canonical chains until each variant maps to its final form.
// A cycle is a configuration error
func resolveChains(in map[string]string) (map[string]string, error) {
	base := make(map[string]string, len(in))
	for k, v := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.ToLower(strings.TrimSpace(v))
		if k == "" || v == "" {
			return nil, fmt.Errorf("vocab: empty substitution entry %q -> %q", k, v)
		}
		base[k] = v
	}
	out := make(map[string]string, len(base))
	for k := range base {
		v := base[k]
		for hops := 0; ; hops++ {
			next, ok := base[v]
			if !ok || next == v {
				break
			}
			if hops > len(base) {
				return nil, fmt.Errorf("vocab: substitution cycle at %q", k)
			}
			v = next
		}
		out[k] = v
	}
	return out, nil
}

func lowerAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
