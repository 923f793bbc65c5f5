package classify

import (
	"math"
	"strings"
	"testing"

	"labelscan/internal/core/allergen"
	"labelscan/internal/core/normalize"
	"labelscan/internal/core/vocab"
)

func mustClassifier(t *testing.T) *Classifier {
	t.Helper()
	p, err := vocab.Load()
	if err != nil {
		t.Fatalf("vocab.Load: %v", err)
	}
	return New(p)
}

func mustPipeline(t *testing.T) (*normalize.Normalizer, *Classifier) {
	t.Helper()
	p, err := vocab.Load()
	if err != nil {
		t.Fatalf("vocab.Load: %v", err)
	}
	return normalize.New(p), New(p)
}

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestReportCoversEveryClassOnce(t *testing.T) {
	c := mustClassifier(t)

	for _, text := range []string{
		"",
		"contains milk, peanut",
		"ingredients: wheat flour, soy lecithin. may contain sesame",
	} {
		r := c.Classify(text)
		total := len(r.Contains) + len(r.MayContain) + len(r.NotDetected)
		if total != len(allergen.Classes()) {
			t.Fatalf("classify(%q): %d bucketed classes, want %d", text, total, len(allergen.Classes()))
		}
		seen := map[allergen.Class]int{}
		for _, f := range r.Contains {
			seen[f.Allergen]++
		}
		for _, f := range r.MayContain {
			seen[f.Allergen]++
		}
		for _, cl := range r.NotDetected {
			seen[cl]++
		}
		for cl, n := range seen {
			if n != 1 {
				t.Fatalf("classify(%q): class %s appears %d times", text, cl, n)
			}
		}
	}
}

func TestNegationSuppression(t *testing.T) {
	c := mustClassifier(t)

	cases := []struct {
		text  string
		class allergen.Class
	}{
		{"free from peanut", allergen.Peanut},
		{"no peanut, no artificial colours", allergen.Peanut},
		{"gluten free oats", allergen.Gluten},
		{"dairy-free chocolate", allergen.Milk},
		{"made without egg", allergen.Egg},
	}
	for _, tc := range cases {
		r := c.Classify(tc.text)
		if got := r.Bucket(tc.class); got != allergen.NotDetected {
			t.Fatalf("classify(%q): %s = %s, want NOT_DETECTED", tc.text, tc.class, got)
		}
	}
}

func TestFishShellfishExclusion(t *testing.T) {
	c := mustClassifier(t)

	r := c.Classify("contains shellfish")
	if got := r.Bucket(allergen.Shellfish); got != allergen.Contains {
		t.Fatalf("shellfish = %s, want CONTAINS", got)
	}
	if got := r.Bucket(allergen.Fish); got != allergen.NotDetected {
		t.Fatalf("fish = %s, want NOT_DETECTED", got)
	}

	// a qualified product phrase is unambiguous even without shellfish
	r = c.Classify("contains fish oil")
	if got := r.Bucket(allergen.Fish); got != allergen.Contains {
		t.Fatalf("fish (oil) = %s, want CONTAINS", got)
	}
}

func TestSectionBoundary(t *testing.T) {
	n, c := mustPipeline(t)

	r := c.Classify(n.Normalize("Ingredients: milk. May contain traces of peanuts. Store in a cool place."))
	if got := r.Bucket(allergen.Milk); got != allergen.Contains {
		t.Fatalf("milk = %s, want CONTAINS", got)
	}
	if got := r.Bucket(allergen.Peanut); got != allergen.MayContain {
		t.Fatalf("peanut = %s, want MAY_CONTAIN", got)
	}
	// "cool" in trailing storage text must not collide with cod
	if got := r.Bucket(allergen.Fish); got != allergen.NotDetected {
		t.Fatalf("fish = %s, want NOT_DETECTED", got)
	}
}

func TestFuzzyCorrectionEndToEnd(t *testing.T) {
	n, c := mustPipeline(t)

	cleaned := n.Normalize("Peatats Skin-On Brazi Muts")
	if !strings.Contains(cleaned, "peanut") || !strings.Contains(cleaned, "brazil nut") {
		t.Fatalf("cleaned = %q, want peanut and brazil nut substrings", cleaned)
	}
	r := c.Classify(cleaned)
	if got := r.Bucket(allergen.Peanut); got != allergen.Contains {
		t.Fatalf("peanut = %s, want CONTAINS", got)
	}
	if got := r.Bucket(allergen.TreeNut); got != allergen.Contains {
		t.Fatalf("tree nut = %s, want CONTAINS", got)
	}
}

// TestPineNutStaysTreeNut runs the full pipeline over a label whose
// only allergen is a multi-word tree nut term. The corrector must not
// bend "pine" toward the lupin vocabulary: that would be a lupin false
// positive and a missed tree nut at once
func TestPineNutStaysTreeNut(t *testing.T) {
	n, c := mustPipeline(t)

	cleaned := n.Normalize("Ingredients: pine nuts, salt")
	if !strings.Contains(cleaned, "pine nut") {
		t.Fatalf("cleaned = %q, want pine nut substring", cleaned)
	}
	r := c.Classify(cleaned)
	if got := r.Bucket(allergen.TreeNut); got != allergen.Contains {
		t.Fatalf("tree nut = %s, want CONTAINS", got)
	}
	if got := r.Bucket(allergen.Lupin); got != allergen.NotDetected {
		t.Fatalf("lupin = %s, want NOT_DETECTED", got)
	}
}

func TestInstructionSectionGuard(t *testing.T) {
	c := mustClassifier(t)

	r := c.Classify("store in a cool dry place. milk")
	if got := r.Bucket(allergen.Milk); got != allergen.NotDetected {
		t.Fatalf("milk in storage text = %s, want NOT_DETECTED", got)
	}

	// explicit ingredient language overrides the guard
	r = c.Classify("contains milk. store in a cool dry place")
	if got := r.Bucket(allergen.Milk); got != allergen.Contains {
		t.Fatalf("milk with declaration = %s, want CONTAINS", got)
	}
}

func TestCompoundWordSuppression(t *testing.T) {
	c := mustClassifier(t)

	r := c.Classify("ingredients: peanut butter")
	if got := r.Bucket(allergen.Peanut); got != allergen.Contains {
		t.Fatalf("peanut = %s, want CONTAINS", got)
	}
	if got := r.Bucket(allergen.Milk); got != allergen.NotDetected {
		t.Fatalf("milk (nut butter) = %s, want NOT_DETECTED", got)
	}

	r = c.Classify("ingredients: almond milk")
	if got := r.Bucket(allergen.Milk); got != allergen.NotDetected {
		t.Fatalf("milk (almond milk) = %s, want NOT_DETECTED", got)
	}
	if got := r.Bucket(allergen.TreeNut); got != allergen.Contains {
		t.Fatalf("tree nut (almond) = %s, want CONTAINS", got)
	}
}

func TestAmbiguityHalvesConfidence(t *testing.T) {
	c := mustClassifier(t)

	r := c.Classify("possibly milk")
	if got := r.Bucket(allergen.Milk); got != allergen.NotDetected {
		t.Fatalf("possibly milk = %s, want NOT_DETECTED (confidence below threshold)", got)
	}
}

func TestNutritionTableRejected(t *testing.T) {
	c := mustClassifier(t)

	r := c.Classify("nutrition information per 100 g serving energy 1200 kilojoule milk 3.5 g")
	if got := r.Bucket(allergen.Milk); got != allergen.NotDetected {
		t.Fatalf("milk in nutrition table = %s, want NOT_DETECTED", got)
	}
}

func TestConfidenceThresholdBoundary(t *testing.T) {
	c := mustClassifier(t)

	if !c.Accepted(0.70) {
		t.Fatal("0.70 must be accepted (inclusive threshold)")
	}
	if c.Accepted(0.69) {
		t.Fatal("0.69 must be rejected")
	}
	if !c.Accepted(0.695) { // rounds to 0.70
		t.Fatal("0.695 must round up and be accepted")
	}
}

func TestSplit(t *testing.T) {
	c := mustClassifier(t)

	ing, may := c.Split("ingredients: milk, sugar. may contain traces of peanut. store in a cool place.")
	if !strings.Contains(ing.Text, "milk") || strings.Contains(ing.Text, "peanut") {
		t.Fatalf("ingredient section = %q", ing.Text)
	}
	if !strings.Contains(may.Text, "peanut") || strings.Contains(may.Text, "cool") {
		t.Fatalf("may-contain section = %q", may.Text)
	}
	if may.Offset == 0 || ing.Offset != 0 {
		t.Fatalf("offsets = %d, %d", ing.Offset, may.Offset)
	}

	ing, may = c.Split("just milk")
	if ing.Text != "just milk" || may.Text != "" {
		t.Fatalf("no-trigger split = %q, %q", ing.Text, may.Text)
	}
}

func TestScore(t *testing.T) {
	c := mustClassifier(t)

	// declaration context saturates the score
	text := "ingredients: milk, sugar"
	pos := strings.Index(text, "milk")
	if got := c.Score(text, pos, pos+4); !almost(got, 1.0) {
		t.Fatalf("declaration score = %v, want 1.0", got)
	}

	// bare mention stays neutral
	if got := c.Score("milk", 0, 4); !almost(got, 0.5) {
		t.Fatalf("bare score = %v, want 0.5", got)
	}

	// number+unit adjacency penalized
	text = "milk 3.5 g"
	if got := c.Score(text, 0, 4); !almost(got, 0.2) {
		t.Fatalf("number-unit score = %v, want 0.2", got)
	}

	// heading pattern penalized
	text = "milk: good for you"
	if got := c.Score(text, 0, 4); !almost(got, 0.1) {
		t.Fatalf("heading score = %v, want 0.1", got)
	}

	// out-of-range offsets are clamped, never panic
	_ = c.Score("milk", -5, 99)
}
