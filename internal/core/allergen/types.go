// Package allergen defines the domain types shared by the label
// detection engine: allergen classes, finding categories, findings,
// and the per-request detection report.
package allergen

import "sort"

// Class identifies a regulated allergen class. The set is fixed at
// compile time; extending it means adding a vocabulary entry for the
// new class, not new code.
type Class string

const (
	Peanut    Class = "PEANUT"
	TreeNut   Class = "TREE_NUT"
	Milk      Class = "MILK"
	Egg       Class = "EGG"
	Gluten    Class = "GLUTEN"
	Soy       Class = "SOY"
	Fish      Class = "FISH"
	Shellfish Class = "SHELLFISH"
	Sesame    Class = "SESAME"
	Mustard   Class = "MUSTARD"
	Celery    Class = "CELERY"
	Sulphites Class = "SULPHITES"
	Lupin     Class = "LUPIN"
)

// Classes returns every known class in declaration order.
// Callers must not mutate the returned slice
func Classes() []Class {
	return classes
}

var classes = []Class{
	Peanut, TreeNut, Milk, Egg, Gluten, Soy, Fish,
	Shellfish, Sesame, Mustard, Celery, Sulphites, Lupin,
}

var classSet = func() map[Class]struct{} {
	m := make(map[Class]struct{}, len(classes))
	for _, c := range classes {
		m[c] = struct{}{}
	}
	return m
}()

// Known reports whether c is one of the fixed classes
func Known(c Class) bool {
	_, ok := classSet[c]
	return ok
}

// Category classifies how an allergen appears on a label
type Category string

const (
	// Contains means the allergen is declared as a present ingredient
	Contains Category = "CONTAINS"
	// MayContain means a precautionary / cross-contamination warning
	MayContain Category = "MAY_CONTAIN"
	// NotDetected means no accepted evidence for the allergen
	NotDetected Category = "NOT_DETECTED"
)

// TextSpan is a half-open [Start,End) byte range over the cleaned text,
// kept for evidence extraction and deduplication
type TextSpan struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Class Class  `json:"class"`
	Raw   string `json:"raw"`
}

// Finding is one accepted allergen detection with its audit trail.
// Confidence is in [0,1]. Sources records every origin that contributed
// ("rules", plus any recognizer names merged in later)
type Finding struct {
	Allergen   Class    `json:"allergen"`
	Category   Category `json:"category"`
	Evidence   string   `json:"evidence"`
	Confidence float64  `json:"confidence"`
	Keyword    string   `json:"matched_keyword"`
	Sources    []string `json:"sources,omitempty"`

	// EvidenceSpans holds all distinct evidence snippets after a merge.
	// For a fresh rule finding it is just {Evidence}
	EvidenceSpans []string `json:"evidence_spans,omitempty"`

	// Spans are the offset ranges in the cleaned text backing this
	// finding, one per contributing match
	Spans []TextSpan `json:"spans,omitempty"`
}

// AddSpan appends sp if no identical span is recorded
func (f *Finding) AddSpan(sp TextSpan) {
	for _, s := range f.Spans {
		if s == sp {
			return
		}
	}
	f.Spans = append(f.Spans, sp)
}

// AddSource appends src if not already recorded
func (f *Finding) AddSource(src string) {
	for _, s := range f.Sources {
		if s == src {
			return
		}
	}
	f.Sources = append(f.Sources, src)
}

// AddEvidence appends ev to EvidenceSpans if non-empty and not already present
func (f *Finding) AddEvidence(ev string) {
	if ev == "" {
		return
	}
	for _, e := range f.EvidenceSpans {
		if e == ev {
			return
		}
	}
	f.EvidenceSpans = append(f.EvidenceSpans, ev)
}

// Summary carries the counts the API returns alongside a report
type Summary struct {
	ContainsCount   int `json:"contains_count"`
	MayContainCount int `json:"may_contain_count"`
	TotalDetected   int `json:"total_detected"`
}

// DetectionReport buckets every class into exactly one of contains,
// may_contain, or not_detected. Reports are immutable once returned
type DetectionReport struct {
	Contains    []Finding `json:"contains"`
	MayContain  []Finding `json:"may_contain"`
	NotDetected []Class   `json:"not_detected"`
	Summary     Summary   `json:"summary"`
}

// NewReport assembles a complete report from accepted findings.
// A class present in both buckets resolves to Contains. Every class
// missing from both buckets lands in NotDetected, so the three buckets
// always partition the full class set
func NewReport(contains, mayContain []Finding) DetectionReport {
	seen := make(map[Class]struct{}, len(contains)+len(mayContain))

	outContains := make([]Finding, 0, len(contains))
	for _, f := range contains {
		if _, dup := seen[f.Allergen]; dup {
			continue
		}
		seen[f.Allergen] = struct{}{}
		outContains = append(outContains, f)
	}

	outMay := make([]Finding, 0, len(mayContain))
	for _, f := range mayContain {
		if _, dup := seen[f.Allergen]; dup {
			continue // contains wins over may_contain
		}
		seen[f.Allergen] = struct{}{}
		outMay = append(outMay, f)
	}

	var missing []Class
	for _, c := range classes {
		if _, ok := seen[c]; !ok {
			missing = append(missing, c)
		}
	}

	sortFindings(outContains)
	sortFindings(outMay)

	return DetectionReport{
		Contains:    outContains,
		MayContain:  outMay,
		NotDetected: missing,
		Summary: Summary{
			ContainsCount:   len(outContains),
			MayContainCount: len(outMay),
			TotalDetected:   len(outContains) + len(outMay),
		},
	}
}

// Bucket returns the category the report assigned to c
func (r DetectionReport) Bucket(c Class) Category {
	for _, f := range r.Contains {
		if f.Allergen == c {
			return Contains
		}
	}
	for _, f := range r.MayContain {
		if f.Allergen == c {
			return MayContain
		}
	}
	return NotDetected
}

// Find returns the finding for c and whether one exists
func (r DetectionReport) Find(c Class) (Finding, bool) {
	for _, f := range r.Contains {
		if f.Allergen == c {
			return f, true
		}
	}
	for _, f := range r.MayContain {
		if f.Allergen == c {
			return f, true
		}
	}
	return Finding{}, false
}

// sortFindings orders findings by class declaration order for
// deterministic report output
func sortFindings(fs []Finding) {
	order := make(map[Class]int, len(classes))
	for i, c := range classes {
		order[c] = i
	}
	sort.SliceStable(fs, func(i, j int) bool {
		return order[fs[i].Allergen] < order[fs[j].Allergen]
	})
}
