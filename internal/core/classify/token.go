package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// isWord reports whether r counts as a word character for boundary
// checks. Letters, digits, and connector punctuation; hyphen and the
// rest of punctuation are non-word
func isWord(r rune) bool {
	if r == utf8.RuneError || r == 0 {
		return false
	}
	return unicode.IsLetter(r) ||
		unicode.IsNumber(r) ||
		unicode.In(r, unicode.Pc)
}

// boundaryOK reports whether [start,end) sits on word boundaries in s.
// Prevents "nut" matching inside "nutrition" or "shell" inside
// "eggshell"
func boundaryOK(s string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s[:start]); isWord(r) {
			return false
		}
	}
	if end < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[end:]); isWord(r) {
			return false
		}
	}
	return true
}

// FindTerm returns the offset of the first boundary-respecting
// occurrence of term in s, or -1. Terms may span multiple words
func FindTerm(s, term string) int {
	if term == "" {
		return -1
	}
	for from := 0; ; {
		i := strings.Index(s[from:], term)
		if i < 0 {
			return -1
		}
		start := from + i
		end := start + len(term)
		if boundaryOK(s, start, end) {
			return start
		}
		from = start + 1
	}
}

// ContainsTerm is FindTerm >= 0
func ContainsTerm(s, term string) bool {
	return FindTerm(s, term) >= 0
}

// ContainsAnyTerm reports whether any of terms occurs in s on word
// boundaries
func ContainsAnyTerm(s string, terms []string) bool {
	for _, t := range terms {
		if ContainsTerm(s, t) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
