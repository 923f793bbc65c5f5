package classify

import "strings"

// Scorer weights. The neutral start plus the ingredient-marker boost is
// deliberately enough to clear the gate on its own; nutrition and
// metadata penalties only apply without a marker, since a marker is the
// strongest possible signal that the hit sits in a declaration
const (
	scoreNeutral       = 0.5
	markerBoost        = 0.6
	foodWordBoost      = 0.08
	foodWordBoostCap   = 0.3
	nutritionPenalty   = 0.15
	nutritionCap       = 0.4
	metadataPenalty    = 0.3
	numberUnitPenalty  = 0.3
	headingPenalty     = 0.4
	listPunctBoost     = 0.2
	scoreWindow        = 100 // chars either side of the match
	numberUnitAdjacent = 3   // max gap between a number+unit and the match
)

// Score rates how likely the keyword occurrence at [start,end) in text
// is a genuine ingredient mention rather than nutrition-table, heading,
// or metadata noise. Total over all inputs; offsets are clamped to the
// text. Result is in [0,1]
func (c *Classifier) Score(text string, start, end int) float64 {
	start = clamp(start, 0, len(text))
	end = clamp(end, start, len(text))

	ws := clamp(start-scoreWindow, 0, len(text))
	we := clamp(end+scoreWindow, 0, len(text))
	win := text[ws:we]

	s := scoreNeutral

	marker := hasAny(win, c.pack.Signals.IngredientMarkers)
	if marker {
		s += markerBoost
	}

	if boost := foodWordBoost * float64(countAny(win, c.pack.Signals.FoodWords)); boost > 0 {
		if boost > foodWordBoostCap {
			boost = foodWordBoostCap
		}
		s += boost
	}

	if !marker {
		if pen := nutritionPenalty * float64(countAny(win, c.pack.Signals.NutritionTerms)); pen > 0 {
			if pen > nutritionCap {
				pen = nutritionCap
			}
			s -= pen
		}
		if hasAny(win, c.pack.Signals.MetadataTerms) {
			s -= metadataPenalty
		}
	}

	if c.numberUnitAdjacent(text, start, end) {
		s -= numberUnitPenalty
	}

	// keyword used as a heading: "milk: 3.5g"
	if k := skipSpaces(text, end); k < len(text) && text[k] == ':' {
		s -= headingPenalty
	}

	if strings.ContainsAny(win, ",()") {
		s += listPunctBoost
	}

	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// numberUnitAdjacent reports whether a number+unit pattern sits within
// numberUnitAdjacent characters of the match span, the signature of a
// nutrition-table row
func (c *Classifier) numberUnitAdjacent(text string, start, end int) bool {
	rs := clamp(start-12, 0, len(text))
	re := clamp(end+12, 0, len(text))
	for _, m := range c.pack.NumberUnit.FindAllStringIndex(text[rs:re], -1) {
		ms, me := rs+m[0], rs+m[1]
		switch {
		case me <= start:
			if start-me <= numberUnitAdjacent {
				return true
			}
		case ms >= end:
			if ms-end <= numberUnitAdjacent {
				return true
			}
		default: // overlaps the match
			return true
		}
	}
	return false
}

func skipSpaces(s string, i int) int {
	for i < len(s) && s[i] == ' ' {
		i++
	}
	return i
}

// hasAny is plain substring containment; scorer signals include
// punctuation-bearing phrases ("ingredients:", "per 100") that word
// boundaries would mishandle
func hasAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func countAny(s string, terms []string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(s, t) {
			n++
		}
	}
	return n
}
