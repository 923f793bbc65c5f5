// Package service wires the detection pipeline: normalize, section
// split + classify, recognizer label mapping, evidence merge, and
// best-effort persistence
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"labelscan/internal/core/allergen"
	"labelscan/internal/core/classify"
	"labelscan/internal/core/merge"
	"labelscan/internal/core/normalize"
	"labelscan/internal/core/vocab"
	"labelscan/internal/platform/logger"
	"labelscan/internal/services/detect/domain"
)

// Service implements domain.DetectorPort
type Service struct {
	norm    *normalize.Normalizer
	cls     *classify.Classifier
	mrg     *merge.Merger
	pack    *vocab.Pack
	reports domain.ReportStore
	audit   domain.FindingsAudit
	log     logger.Logger
}

// New constructs the detection service. reports and audit may be nil
// when the backing stores are disabled
func New(p *vocab.Pack, reports domain.ReportStore, audit domain.FindingsAudit, log logger.Logger) *Service {
	return &Service{
		norm:    normalize.New(p),
		cls:     classify.New(p),
		mrg:     merge.New(p),
		pack:    p,
		reports: reports,
		audit:   audit,
		log:     log,
	}
}

// Detect runs the full pipeline. Empty or whitespace-only text yields a
// complete all-not-detected report; persistence failures are logged and
// never surface to the caller
func (s *Service) Detect(ctx context.Context, in domain.DetectInput) (domain.Result, error) {
	started := time.Now()

	cleaned := s.norm.Normalize(in.Text)
	rule := s.cls.Classify(cleaned)

	hits, unmapped := s.mapSpans(in.Recognizer)
	report, diag := s.mrg.Merge(rule, hits, cleaned)

	res := domain.Result{
		ID:          uuid.New(),
		Cleaned:     cleaned,
		Report:      report,
		Diagnostics: domain.Diagnostics{Diagnostics: diag, UnmappedLabels: unmapped},
		CreatedAt:   time.Now().UTC(),
		ElapsedMS:   time.Since(started).Milliseconds(),
	}

	if s.reports != nil {
		if err := s.reports.Save(ctx, res, in.Text); err != nil {
			s.log.Warn().Err(err).Str("report_id", res.ID.String()).Msg("report save failed")
		}
	}
	if s.audit != nil {
		if err := s.audit.Write(ctx, res); err != nil {
			s.log.Warn().Err(err).Str("report_id", res.ID.String()).Msg("findings audit write failed")
		}
	}
	return res, nil
}

// Merge folds late recognizer output into a caller-held rule report
// over the same cleaned text. Nothing is persisted
func (s *Service) Merge(ctx context.Context, in domain.MergeInput) (domain.Result, error) {
	started := time.Now()

	hits, unmapped := s.mapSpans(in.Recognizer)
	report, diag := s.mrg.Merge(in.Report, hits, in.Cleaned)

	return domain.Result{
		ID:          uuid.New(),
		Cleaned:     in.Cleaned,
		Report:      report,
		Diagnostics: domain.Diagnostics{Diagnostics: diag, UnmappedLabels: unmapped},
		CreatedAt:   time.Now().UTC(),
		ElapsedMS:   time.Since(started).Milliseconds(),
	}, nil
}

// mapSpans converts recognizer spans to merge hits, resolving each
// span's label to an allergen class. Unmappable spans are dropped and
// counted, not errored: recognizer noise is expected input
func (s *Service) mapSpans(spans []domain.RecognizerSpan) ([]merge.Hit, int) {
	if len(spans) == 0 {
		return nil, 0
	}
	hits := make([]merge.Hit, 0, len(spans))
	unmapped := 0
	for _, sp := range spans {
		c, ok := s.mapLabel(sp.Label)
		if !ok {
			c, ok = s.mapLabel(sp.Text)
		}
		if !ok {
			unmapped++
			continue
		}
		hits = append(hits, merge.Hit{
			Class:      c,
			Start:      sp.Start,
			End:        sp.End,
			Confidence: sp.Confidence,
			Source:     sp.Source,
		})
	}
	return hits, unmapped
}

// mapLabel resolves a recognizer label to a class: an exact class name
// first, then mutual containment against the vocabulary (a span
// labelled "peanut butter" maps to PEANUT, "soy" to SOY via "soybean")
func (s *Service) mapLabel(label string) (allergen.Class, bool) {
	lbl := strings.ToLower(strings.TrimSpace(label))
	if lbl == "" {
		return "", false
	}

	c := allergen.Class(strings.ToUpper(strings.ReplaceAll(lbl, " ", "_")))
	if allergen.Known(c) {
		return c, true
	}

	for i := range s.pack.Entries {
		e := &s.pack.Entries[i]
		terms := e.Terms()
		if e.AmbiguousTerm != "" {
			terms = append(terms, e.AmbiguousTerm)
		}
		for _, t := range terms {
			if strings.Contains(lbl, t) || strings.Contains(t, lbl) {
				return e.Class, true
			}
		}
	}
	return "", false
}
