package classify

import (
	"strings"

	"labelscan/internal/core/allergen"
)

// Section is one zone of the label with its category and the byte
// offset of its text within the full cleaned input
type Section struct {
	Text     string
	Offset   int
	Category allergen.Category
}

// Split partitions cleaned label text at the first precautionary
// trigger ("may contain", "traces of", cross-contamination phrasing).
// Everything before the trigger is the ingredient section; the trigger
// and everything after is the may-contain section, trimmed at the
// earliest non-ingredient marker (storage, best-before, batch text).
// Trailing label text is a reliable source of OCR noise that collides
// with allergen terms, so it is dropped rather than scanned.
// With no trigger the whole text is the ingredient section
func (c *Classifier) Split(text string) (ingredient, mayContain Section) {
	ingredient = Section{Text: text, Category: allergen.Contains}
	mayContain = Section{Offset: len(text), Category: allergen.MayContain}

	loc := c.pack.Sections.Trigger.FindStringIndex(text)
	if loc == nil {
		return ingredient, mayContain
	}

	ingredient.Text = text[:loc[0]]
	mayContain.Text = text[loc[0]:]
	mayContain.Offset = loc[0]

	mayContain.Text = c.trimTail(mayContain.Text)
	return ingredient, mayContain
}

// trimTail cuts s at the earliest non-ingredient marker
func (c *Classifier) trimTail(s string) string {
	cut := len(s)
	for _, m := range c.pack.Sections.NonIngredientMarkers {
		if i := strings.Index(s, m); i >= 0 && i < cut {
			cut = i
		}
	}
	return s[:cut]
}
