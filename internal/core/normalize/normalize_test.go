package normalize

import (
	"strings"
	"testing"

	"labelscan/internal/core/vocab"
)

func mustNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	p, err := vocab.Load()
	if err != nil {
		t.Fatalf("vocab.Load: %v", err)
	}
	return New(p)
}

func TestNormalizeOCRGarble(t *testing.T) {
	n := mustNormalizer(t)

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"token substitutions", "Peatats Skin-On Brazi Muts", "peanut brazil nut"},
		{"digit confusion", "Ingredients: Mi1k, sugar", "ingredients: milk, sugar"},
		{"phrase substitution", "may contaln traces of nvts", "may contain traces of nut"},
		{"and becomes comma", "milk and egg", "milk, egg"},
		{"allergy advice rewrite", "Allergy advice: milk", "contains milk"},
		{"charset strip", "milk (powder)!", "milk powder"},
		{"whitespace collapse", "  milk \t\n sugar  ", "milk sugar"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := n.Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeFuzzyCorrection(t *testing.T) {
	n := mustNormalizer(t)

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"garbled walnut", "walnvts", "walnut"},
		{"garbled hazelnut", "hazelnvt", "hazelnut"},
		{"short token untouched", "nut oil", "nut oil"},
		{"skip word untouched", "organic cereal", "organic cereal"},
		{"unrelated word untouched", "spice", "spice"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := n.Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

// TestNormalizeCanonicalFixedPoints pins the corrector down on already
// canonical text: words of multi-word vocabulary terms ("brazil",
// "tree", "pine") score above the fuzzy threshold against their own
// term and must never be re-expanded or rewritten into another class
func TestNormalizeCanonicalFixedPoints(t *testing.T) {
	n := mustNormalizer(t)

	inputs := []string{
		"brazil nut",
		"tree nut",
		"peanut brazil nut",
		"ingredients: pine nut, salt",
	}
	for _, in := range inputs {
		if got := n.Normalize(in); got != in {
			t.Fatalf("canonical text rewritten: Normalize(%q) = %q", in, got)
		}
	}
}

// TestNormalizeKeepsVocabularyWords guards against cross-class fuzzy
// rewrites: "pine" is one edit band away from "lupin" but is itself a
// word of the tree nut vocabulary and must stay put
func TestNormalizeKeepsVocabularyWords(t *testing.T) {
	n := mustNormalizer(t)

	got := n.Normalize("Ingredients: pine nuts, salt")
	if strings.Contains(got, "lupin") {
		t.Fatalf("vocabulary word rewritten into another class: %q", got)
	}
	if !strings.Contains(got, "pine nut") {
		t.Fatalf("pine nut lost in normalization: %q", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := mustNormalizer(t)

	inputs := []string{
		"Peatats Skin-On Brazi Muts",
		"Ingredients: Mi1k, sugar and WHEAT flour. May contaln nvts.",
		"Allergy advice: see ingredients in bold",
		"contains: soya, sulphur dloxide",
		"Pine nuts, Brazil nuts and tree nut paste",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		twice := n.Normalize(once)
		if once != twice {
			t.Fatalf("not idempotent for %q:\n first: %q\nsecond: %q", in, once, twice)
		}
	}
}

func TestSimilarity(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"peanut", "peanut", 1},
		{"", "", 1},
		{"peanut", "", 0},
		{"abc", "xyz", 0},
	}
	for _, tc := range cases {
		if got := similarity(tc.a, tc.b); got != tc.want {
			t.Fatalf("similarity(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}

	// mustord is one OCR error away from mustard and must clear the
	// correction threshold; an unrelated word must not
	if got := similarity("mustord", "mustard"); got < vocab.FuzzyThreshold {
		t.Fatalf("similarity(mustord, mustard) = %v, want >= %v", got, vocab.FuzzyThreshold)
	}
	if got := similarity("spice", "peanut"); got >= vocab.FuzzyThreshold {
		t.Fatalf("similarity(spice, peanut) = %v, want < %v", got, vocab.FuzzyThreshold)
	}
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"clean passthrough", "ingredients: milk", "ingredients: milk"},
		{"nul and controls dropped", "mi\x00lk\x01", "milk"},
		{"newline and tab kept", "milk\n\tsugar", "milk\n\tsugar"},
		{"invalid utf8 dropped", "mil\xffk", "milk"},
		{"del dropped", "milk\x7f", "milk"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Sanitize(tc.in); got != tc.want {
				t.Fatalf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
