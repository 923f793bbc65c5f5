// Package repo persists detection results: report rows in postgres,
// per-finding audit rows in clickhouse
package repo

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"labelscan/internal/core/allergen"
	perr "labelscan/internal/platform/errors"
	"labelscan/internal/platform/store"
	"labelscan/internal/services/detect/domain"
)

// Reports is the postgres-backed domain.ReportStore
type Reports struct {
	q store.RowQuerier
}

// NewReports binds the report store to a sql seam
func NewReports(q store.RowQuerier) *Reports { return &Reports{q: q} }

// Save writes one completed detection. The report body is stored as
// jsonb so the audit trail survives schema drift in Finding
func (r *Reports) Save(ctx context.Context, res domain.Result, rawText string) error {
	body, err := json.Marshal(res.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO detection_reports
			(id, raw_text, cleaned_text, report, contains_count, may_contain_count,
			 dropped_uncorroborated, unmapped_labels, elapsed_ms, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO NOTHING`,
		res.ID, rawText, res.Cleaned, body,
		res.Report.Summary.ContainsCount, res.Report.Summary.MayContainCount,
		res.Diagnostics.Uncorroborated, res.Diagnostics.UnmappedLabels,
		res.ElapsedMS, res.CreatedAt,
	)
	return err
}

// Get loads one detection by id
func (r *Reports) Get(ctx context.Context, id uuid.UUID) (domain.Result, error) {
	var (
		res  domain.Result
		body []byte
	)
	row := r.q.QueryRow(ctx, `
		SELECT id, cleaned_text, report, dropped_uncorroborated, unmapped_labels,
		       elapsed_ms, created_at
		FROM detection_reports
		WHERE id = $1`,
		id,
	)
	err := row.Scan(&res.ID, &res.Cleaned, &body,
		&res.Diagnostics.Uncorroborated, &res.Diagnostics.UnmappedLabels,
		&res.ElapsedMS, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, stdsql.ErrNoRows) {
			return domain.Result{}, perr.Newf(perr.ErrorCodeNotFound, "report %s not found", id)
		}
		return domain.Result{}, err
	}
	if err := json.Unmarshal(body, &res.Report); err != nil {
		return domain.Result{}, fmt.Errorf("unmarshal report: %w", err)
	}
	return res, nil
}

// Audit is the clickhouse-backed domain.FindingsAudit
type Audit struct {
	ch store.Clickhouse
}

// NewAudit binds the findings audit to a clickhouse seam
func NewAudit(ch store.Clickhouse) *Audit { return &Audit{ch: ch} }

// Write appends one row per emitted finding. Row order matches the
// allergen_findings column order
func (a *Audit) Write(ctx context.Context, res domain.Result) error {
	findings := make([]allergen.Finding, 0,
		len(res.Report.Contains)+len(res.Report.MayContain))
	findings = append(findings, res.Report.Contains...)
	findings = append(findings, res.Report.MayContain...)
	if len(findings) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(findings))
	for _, f := range findings {
		src := ""
		if len(f.Sources) > 0 {
			src = f.Sources[0]
		}
		rows = append(rows, []any{
			res.ID.String(),
			string(f.Allergen),
			string(f.Category),
			f.Confidence,
			f.Keyword,
			src,
			f.Evidence,
			res.CreatedAt,
		})
	}
	return a.ch.Insert(ctx, "allergen_findings", rows)
}
