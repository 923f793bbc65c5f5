// Package domain defines the types and ports of the detection service
package domain

import (
	"time"

	"github.com/google/uuid"

	"labelscan/internal/core/allergen"
	"labelscan/internal/core/merge"
)

// RecognizerSpan is one upstream entity-recognizer hit over the cleaned
// text: the span offsets, the model's label (free text), its confidence
// and the recognizer's name
type RecognizerSpan struct {
	Text       string  `json:"text"`
	Label      string  `json:"label"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// DetectInput is one detection request. Text is raw label text, usually
// OCR output; Recognizer spans are optional
type DetectInput struct {
	Text       string           `json:"text"`
	Recognizer []RecognizerSpan `json:"recognizer,omitempty"`
}

// MergeInput re-runs the merge for a caller that holds a rule report
// and late recognizer output over the same cleaned text
type MergeInput struct {
	Report     allergen.DetectionReport `json:"report"`
	Recognizer []RecognizerSpan         `json:"recognizer"`
	Cleaned    string                   `json:"cleaned_text"`
}

// Diagnostics extends the merge counters with label-mapping drops
type Diagnostics struct {
	merge.Diagnostics
	// UnmappedLabels counts recognizer spans whose label matched no
	// allergen vocabulary
	UnmappedLabels int
}

// Result is one completed detection: the cleaned text the report refers
// to, the report itself, and the scan metadata
type Result struct {
	ID          uuid.UUID                `json:"id"`
	Cleaned     string                   `json:"cleaned_text"`
	Report      allergen.DetectionReport `json:"report"`
	Diagnostics Diagnostics              `json:"diagnostics"`
	CreatedAt   time.Time                `json:"created_at"`
	ElapsedMS   int64                    `json:"elapsed_ms"`
}
