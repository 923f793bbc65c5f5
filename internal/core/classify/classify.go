// Package classify implements the section-aware allergen rule engine
// over cleaned label text: splitting into ingredient and precautionary
// zones, strict word-boundary keyword scanning with false-positive
// suppression, context scoring, and confidence-gated finding emission
package classify

import (
	"math"
	"strings"

	"labelscan/internal/core/allergen"
	"labelscan/internal/core/vocab"
)

// SourceRules names the rule engine in Finding.Sources
const SourceRules = "rules"

const (
	baseContains     = 1.0
	baseMayContain   = 0.9
	ambiguityFactor  = 0.5
	declarationBoost = 1.1
)

// Options are the classifier tunables. Both thresholds were tuned
// against a noisy-OCR corpus; treat them as configuration, not
// invariants
type Options struct {
	// MinContextScore gates keyword hits on the context score
	MinContextScore float64
	// MinConfidence is the acceptance threshold, inclusive
	MinConfidence float64
	// EvidenceWindow is the chars kept either side of a match
	EvidenceWindow int
	// NegationAfter is how far past a match a negation or substitute
	// word still suppresses it
	NegationAfter int
}

func (o *Options) defaults() {
	if o.MinContextScore == 0 {
		o.MinContextScore = 0.4
	}
	if o.MinConfidence == 0 {
		o.MinConfidence = 0.7
	}
	if o.EvidenceWindow == 0 {
		o.EvidenceWindow = 20
	}
	if o.NegationAfter == 0 {
		o.NegationAfter = 40
	}
}

// Classifier scans cleaned text for allergen declarations. Stateless
// after construction; safe for concurrent use
type Classifier struct {
	pack *vocab.Pack
	opts Options
}

func New(p *vocab.Pack) *Classifier {
	return NewWithOptions(p, Options{})
}

func NewWithOptions(p *vocab.Pack, opts Options) *Classifier {
	opts.defaults()
	return &Classifier{pack: p, opts: opts}
}

// Classify runs the full rule engine on cleaned text: split into
// sections, scan each, and assemble the report. Every allergen class
// appears in exactly one report bucket
func (c *Classifier) Classify(text string) allergen.DetectionReport {
	ing, may := c.Split(text)
	return allergen.NewReport(c.ClassifySection(ing), c.ClassifySection(may))
}

// ClassifySection scans one section and returns at most one Finding
// per allergen class, in vocabulary-declared order
func (c *Classifier) ClassifySection(sec Section) []allergen.Finding {
	if strings.TrimSpace(sec.Text) == "" {
		return nil
	}

	// Storage and shelf-life text is not an ingredient declaration.
	// Explicit ingredient language overrides the guard
	if sec.Category == allergen.Contains &&
		hasAny(sec.Text, c.pack.Sections.InstructionTerms) &&
		!hasAny(sec.Text, c.pack.Sections.IngredientLanguage) {
		return nil
	}

	var out []allergen.Finding
	for i := range c.pack.Entries {
		if f, ok := c.classifyEntry(&c.pack.Entries[i], sec); ok {
			out = append(out, f)
		}
	}
	return out
}

// classifyEntry scans one class's terms against the section, stopping
// at the first accepted match
func (c *Classifier) classifyEntry(e *vocab.Entry, sec Section) (allergen.Finding, bool) {
	for _, term := range c.effectiveTerms(e, sec.Text) {
		pos := FindTerm(sec.Text, term)
		if pos < 0 {
			continue
		}
		end := pos + len(term)

		if c.falsePositive(sec.Text, term, pos, end) {
			continue
		}
		if c.Score(sec.Text, pos, end) < c.opts.MinContextScore {
			continue
		}

		evidence := c.evidence(sec.Text, pos, end)
		conf := c.confidence(sec.Category, evidence)
		if !c.Accepted(conf) {
			continue
		}

		raw := sec.Text[pos:end]
		return allergen.Finding{
			Allergen:   e.Class,
			Category:   sec.Category,
			Evidence:   evidence,
			Confidence: conf,
			Keyword:    term,
			Sources:       []string{SourceRules},
			EvidenceSpans: []string{evidence},
			Spans: []allergen.TextSpan{{
				Start: sec.Offset + pos,
				End:   sec.Offset + end,
				Class: e.Class,
				Raw:   raw,
			}},
		}, true
	}
	return allergen.Finding{}, false
}

// effectiveTerms is the scan list for one class in one section: the
// declared keywords and product phrases, plus the bare ambiguous term
// (e.g. "fish") only when no exclusion term (e.g. "shellfish") occurs
// in the section. Computed per call; the vocabulary is never mutated
func (c *Classifier) effectiveTerms(e *vocab.Entry, text string) []string {
	terms := e.Terms()
	if e.AmbiguousTerm == "" {
		return terms
	}
	if ContainsAnyTerm(text, e.Exclusions) {
		return terms
	}
	out := make([]string, 0, len(terms)+1)
	out = append(out, terms...)
	return append(out, e.AmbiguousTerm)
}

// falsePositive rejects a match that is negated, part of a known
// compound word, or trailed by a substitute/free qualifier
func (c *Classifier) falsePositive(text, term string, start, end int) bool {
	win := c.evidence(text, start, end)

	for _, pat := range negationPatterns(term) {
		if ContainsTerm(win, pat) {
			return true
		}
	}

	for _, phrase := range c.pack.Compounds[term] {
		if strings.Contains(win, phrase) {
			return true
		}
	}

	after := text[end:clamp(end+c.opts.NegationAfter, end, len(text))]
	for _, neg := range c.pack.Confidence.CloseNegations {
		if ContainsTerm(after, neg) {
			return true
		}
	}
	if _, sensitive := c.pack.SubstituteSensitive[term]; sensitive {
		if strings.Contains(win, "substitute") {
			return true
		}
	}
	return false
}

func negationPatterns(term string) []string {
	return []string{
		"no " + term,
		"free from " + term,
		term + " free",
		term + "-free",
		"without " + term,
		"non-" + term,
		"non " + term,
		"does not contain " + term,
	}
}

// confidence computes the emission confidence for a match: category
// base, halved under an ambiguity qualifier, boosted under an explicit
// declaration phrase, capped at 1 and rounded to two decimals
func (c *Classifier) confidence(cat allergen.Category, evidence string) float64 {
	conf := baseContains
	if cat == allergen.MayContain {
		conf = baseMayContain
	}
	if hasAny(evidence, c.pack.Confidence.AmbiguityTerms) {
		conf *= ambiguityFactor
	}
	if hasAny(evidence, c.pack.Confidence.DeclarationPhrases) {
		conf *= declarationBoost
		if conf > 1 {
			conf = 1
		}
	}
	return math.Round(conf*100) / 100
}

// Accepted applies the inclusive acceptance threshold: exactly
// MinConfidence passes
func (c *Classifier) Accepted(conf float64) bool {
	return math.Round(conf*100)/100 >= c.opts.MinConfidence
}

func (c *Classifier) evidence(text string, start, end int) string {
	ws := clamp(start-c.opts.EvidenceWindow, 0, len(text))
	we := clamp(end+c.opts.EvidenceWindow, 0, len(text))
	return strings.TrimSpace(text[ws:we])
}
