// Package merge unions rule-engine findings with upstream entity
// recognizer hits into one deduplicated report. Recognizer output is
// trusted only when corroborated by a literal vocabulary occurrence in
// the cleaned text; rule findings are self-evidencing and never dropped
package merge

import (
	"labelscan/internal/core/allergen"
	"labelscan/internal/core/classify"
	"labelscan/internal/core/vocab"
)

// Hit is one recognizer finding over the cleaned text: a span, the
// claimed class, the model confidence, and the recognizer's name
type Hit struct {
	Class      allergen.Class
	Start      int
	End        int
	Confidence float64
	Source     string
}

// Diagnostics counts hits the merge discarded. Dropped hits are not
// errors; they are the corroboration guard doing its job
type Diagnostics struct {
	// Uncorroborated recognizer-only hits with no literal vocabulary
	// occurrence in the cleaned text
	Uncorroborated int
	// UnknownClass hits claiming a class outside the fixed set
	UnknownClass int
	// InvalidSpan hits whose offsets do not fit the cleaned text
	InvalidSpan int
}

const evidenceWindow = 20

// Merger combines rule and recognizer findings. Stateless; safe for
// concurrent use
type Merger struct {
	pack *vocab.Pack
}

func New(p *vocab.Pack) *Merger {
	return &Merger{pack: p}
}

// Merge folds recognizer hits into the rule report over the same
// cleaned text. Per class: confidence is the maximum across sources,
// evidence is the union of distinct snippets, and every contributing
// source is recorded. A hit for a class the rule engine did not detect
// is kept only when corroborated, and then buckets as CONTAINS
func (m *Merger) Merge(rule allergen.DetectionReport, hits []Hit, cleaned string) (allergen.DetectionReport, Diagnostics) {
	var diag Diagnostics

	byClass := make(map[allergen.Class]*allergen.Finding, len(rule.Contains)+len(rule.MayContain))
	for _, f := range rule.Contains {
		cp := f
		byClass[cp.Allergen] = &cp
	}
	for _, f := range rule.MayContain {
		cp := f
		byClass[cp.Allergen] = &cp
	}

	for _, h := range hits {
		if !allergen.Known(h.Class) {
			diag.UnknownClass++
			continue
		}
		if h.Start < 0 || h.End < h.Start || h.End > len(cleaned) {
			diag.InvalidSpan++
			continue
		}
		ev := snippet(cleaned, h.Start, h.End)
		sp := allergen.TextSpan{Start: h.Start, End: h.End, Class: h.Class, Raw: cleaned[h.Start:h.End]}

		if f, ok := byClass[h.Class]; ok {
			if h.Confidence > f.Confidence {
				f.Confidence = h.Confidence
			}
			f.AddSource(h.Source)
			f.AddEvidence(ev)
			f.AddSpan(sp)
			continue
		}

		term, ok := m.corroborate(cleaned, h.Class)
		if !ok {
			diag.Uncorroborated++
			continue
		}
		byClass[h.Class] = &allergen.Finding{
			Allergen:      h.Class,
			Category:      allergen.Contains,
			Evidence:      ev,
			Confidence:    h.Confidence,
			Keyword:       term,
			Sources:       []string{h.Source},
			EvidenceSpans: []string{ev},
			Spans:         []allergen.TextSpan{sp},
		}
	}

	var contains, mayContain []allergen.Finding
	for _, f := range byClass {
		if f.Category == allergen.MayContain {
			mayContain = append(mayContain, *f)
		} else {
			contains = append(contains, *f)
		}
	}
	return allergen.NewReport(contains, mayContain), diag
}

// corroborate reports the first vocabulary term for c literally present
// in the cleaned text on a word boundary. A class with no vocabulary
// cannot be sanity-checked and passes by default
func (m *Merger) corroborate(cleaned string, c allergen.Class) (string, bool) {
	e := m.pack.Entry(c)
	if e == nil {
		return "", true
	}
	terms := e.Terms()
	if e.AmbiguousTerm != "" {
		terms = append(append([]string(nil), terms...), e.AmbiguousTerm)
	}
	for _, t := range terms {
		if classify.ContainsTerm(cleaned, t) {
			return t, true
		}
	}
	return "", false
}

func snippet(s string, start, end int) string {
	ws := start - evidenceWindow
	if ws < 0 {
		ws = 0
	}
	we := end + evidenceWindow
	if we > len(s) {
		we = len(s)
	}
	return s[ws:we]
}
