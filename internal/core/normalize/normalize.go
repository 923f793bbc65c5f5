// Package normalize cleans raw OCR label text into the canonical
// lowercase form the classifier scans. The pipeline is ordered and
// idempotent: running Normalize on its own output is a no-op
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"labelscan/internal/core/vocab"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Normalizer applies the vocabulary pack's rewrites, substitutions and
// fuzzy corrections on top of a unicode fold. One instance is safe for
// concurrent use
type Normalizer struct {
	pack *vocab.Pack

	// fixed holds every word of every canonical term. Such tokens are
	// already correct and must never be fuzzy-rewritten, or canonical
	// text would drift on repeated passes ("brazil" is a word of
	// "brazil nut", "pine" of "pine nut")
	fixed map[string]struct{}
}

func New(p *vocab.Pack) *Normalizer {
	n := &Normalizer{pack: p, fixed: make(map[string]struct{})}
	addWords := func(term string) {
		for _, w := range strings.Fields(term) {
			n.fixed[w] = struct{}{}
		}
	}
	for _, t := range p.FuzzyTerms {
		addWords(t)
	}
	for _, rep := range p.TokenSubs {
		addWords(rep)
	}
	for i := range p.Entries {
		e := &p.Entries[i]
		for _, t := range e.Terms() {
			addWords(t)
		}
		if e.AmbiguousTerm != "" {
			addWords(e.AmbiguousTerm)
		}
	}
	return n
}

// foldPool amortizes transformer construction; transform.String resets
// the transformer before use
var foldPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,                      // compatibility forms: ligatures, fullwidth digits
			cases.Fold(),                   // case fold, lowercases
			runes.Remove(runes.In(unicode.Mn)), // strip combining marks after NFKC
			runes.Remove(runes.In(unicode.Cf)), // zero-width and BiDi controls
			width.Fold,                     // halfwidth katakana etc
		)
	},
}

func fold(s string) string {
	t := foldPool.Get().(transform.Transformer)
	out, _, err := transform.String(t, s)
	foldPool.Put(t)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// Normalize runs the full cleaning pipeline:
//
//  1. sanitize controls and invalid UTF-8, unicode fold to lowercase
//  2. ordered phrase rewrites (label boilerplate canonicalization)
//  3. per-token substitutions with fuzzy correction of unknown tokens,
//     then multi-word phrase substitutions
//  4. whitespace collapse and charset strip
func (n *Normalizer) Normalize(s string) string {
	s = fold(Sanitize(s))

	for i := range n.pack.Rewrites {
		rw := &n.pack.Rewrites[i]
		s = rw.Re.ReplaceAllString(s, rw.Replace)
	}

	// token subs run before phrase subs: multi-word variants like
	// "peanut skin-on" are written against already-corrected tokens
	s = n.substituteTokens(s)
	for i := range n.pack.PhraseSubs {
		ps := &n.pack.PhraseSubs[i]
		s = ps.Re.ReplaceAllString(s, ps.Replace)
	}

	s = collapseSpace(s)
	return stripCharset(s)
}

// substituteTokens walks maximal [a-z0-9]+ runs. A token with a table
// entry is replaced by its chain-resolved canonical form; otherwise an
// eligible token is fuzzy-matched against the canonical term set.
// A substituted token is never fuzzy-matched again in the same pass
func (n *Normalizer) substituteTokens(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		c := s[i]
		if !tokenByte(c) {
			b.WriteByte(c)
			i++
			continue
		}
		j := i + 1
		for j < len(s) && tokenByte(s[j]) {
			j++
		}
		tok := s[i:j]
		if rep, ok := n.pack.TokenSubs[tok]; ok {
			b.WriteString(rep)
		} else if n.fuzzyEligible(tok) {
			b.WriteString(n.fuzzyCorrect(tok))
		} else {
			b.WriteString(tok)
		}
		i = j
	}
	return b.String()
}

func tokenByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}

// fuzzyEligible limits correction to mid-length alphabetic tokens:
// short tokens match everything, long ones are rarely OCR-garbled into
// a different dictionary word, and digit-bearing tokens are handled by
// the substitution table. Tokens that are themselves words of canonical
// terms are fixed points and never corrected
func (n *Normalizer) fuzzyEligible(tok string) bool {
	if len(tok) < 4 || len(tok) > 8 {
		return false
	}
	for i := 0; i < len(tok); i++ {
		if tok[i] >= '0' && tok[i] <= '9' {
			return false
		}
	}
	if _, ok := n.fixed[tok]; ok {
		return false
	}
	_, skip := n.pack.FuzzySkip[tok]
	return !skip
}

func (n *Normalizer) fuzzyCorrect(tok string) string {
	best, bestScore := tok, 0.0
	for _, term := range n.pack.FuzzyTerms {
		if sc := similarity(tok, term); sc > bestScore {
			best, bestScore = term, sc
		}
	}
	if bestScore >= vocab.FuzzyThreshold {
		return best
	}
	return tok
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripCharset drops everything outside [a-z0-9 \-.,:]. Runs after the
// whitespace collapse, so space is the only whitespace left to keep
func stripCharset(s string) string {
	i := 0
	for i < len(s) && keepByte(s[i]) {
		i++
	}
	if i == len(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(s[:i])
	for ; i < len(s); i++ {
		if keepByte(s[i]) {
			b.WriteByte(s[i])
		}
	}
	return strings.TrimSpace(b.String())
}

func keepByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == ' ', c == '-', c == '.', c == ',', c == ':':
		return true
	}
	return false
}
