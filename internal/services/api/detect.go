package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	perr "labelscan/internal/platform/errors"
	phttp "labelscan/internal/platform/net/http"
	"labelscan/internal/services/detect/domain"
)

// detectHandlers expose the detection pipeline over HTTP
type detectHandlers struct {
	svc     domain.DetectorPort
	reports domain.ReportStore
}

func (h *detectHandlers) mount(r phttp.Router) {
	phttp.PostJSON(r, "/detect", h.detect)
	phttp.PostJSON(r, "/merge", h.merge)
	phttp.GetJSON(r, "/reports/{id}", h.report)
}

// swagger:route POST /v1/detect Detect detectRun
// @Summary Run allergen detection over raw label text
// @Tags Detect
// @Accept json
// @Produce json
// @Success 200 type domain.Result ok
// @Router /v1/detect [post]
func (h *detectHandlers) detect(r *http.Request, in domain.DetectInput) (any, error) {
	return h.svc.Detect(r.Context(), in)
}

// swagger:route POST /v1/merge Detect detectMerge
// @Summary Fold recognizer spans into an existing rule report
// @Tags Detect
// @Accept json
// @Produce json
// @Success 200 type domain.Result ok
// @Router /v1/merge [post]
func (h *detectHandlers) merge(r *http.Request, in domain.MergeInput) (any, error) {
	return h.svc.Merge(r.Context(), in)
}

// swagger:route GET /v1/reports/{id} Detect detectReport
// @Summary Fetch a stored detection report by id
// @Tags Detect
// @Produce json
// @Success 200 type domain.Result ok
// @Router /v1/reports/{id} [get]
func (h *detectHandlers) report(r *http.Request) (any, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return nil, perr.New(perr.ErrorCodeValidation, "invalid report id")
	}
	if h.reports == nil {
		return nil, perr.New(perr.ErrorCodeUnavailable, "report storage disabled")
	}
	return h.reports.Get(r.Context(), id)
}
