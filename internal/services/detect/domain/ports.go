package domain

import (
	"context"

	"github.com/google/uuid"
)

// DetectorPort is the service surface the API mounts
type DetectorPort interface {
	// Detect runs the full pipeline on raw text. Empty input yields an
	// all-not-detected report, never an error
	Detect(ctx context.Context, in DetectInput) (Result, error)

	// Merge folds recognizer spans into an existing rule report
	Merge(ctx context.Context, in MergeInput) (Result, error)
}

// ReportStore persists completed detections. Implementations must
// tolerate a disabled backend (writes become no-ops)
type ReportStore interface {
	Save(ctx context.Context, res Result, rawText string) error
	Get(ctx context.Context, id uuid.UUID) (Result, error)
}

// FindingsAudit records every emitted finding for offline recall
// analysis. Best-effort; the pipeline never fails on audit errors
type FindingsAudit interface {
	Write(ctx context.Context, res Result) error
}
