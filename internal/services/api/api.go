// Package api mounts the HTTP surface of the label scanner
package api

import (
	"compress/flate"
	"net/http"
	"time"

	"labelscan/internal/core/vocab"
	"labelscan/internal/platform/config"
	"labelscan/internal/platform/logger"
	phttp "labelscan/internal/platform/net/http"
	"labelscan/internal/platform/net/middleware"
	"labelscan/internal/platform/store"
	"labelscan/internal/services/detect/domain"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	Detector       domain.DetectorPort
	Reports        domain.ReportStore
	Pack           *vocab.Pack
	EnableSwagger  bool
	EnableProfiler bool
}

// commonStack is the baseline middleware slice applied to every route
func commonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		// tracing / correlation
		middleware.RequestID(),
		middleware.RealIP(),

		// safety
		middleware.RecoverJSON,

		// cache / freshness
		middleware.NoCache(),

		// observability
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: 2 * time.Second}),

		// cross-origin (tweak config in main if needed)
		middleware.CORS(middleware.CORSOptions{}),
		middleware.Compress(flate.BestSpeed),
		middleware.RedirectSlashes(),
		middleware.StripSlashes(),
		middleware.Timeout(30 * time.Second),
	}
}

// Mount registers all routes onto the given router
func Mount(r phttp.Router, opt Options) {
	r.Use(commonStack()...)

	phttp.MountSwagger(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	m := &metaHandlers{startedAt: time.Now()}
	if opt.Pack != nil {
		m.vocabVersion = opt.Pack.Version
	}
	if opt.Store != nil {
		m.pg = opt.Store.PG
		m.ch = opt.Store.CH
	}
	m.mount(r)

	d := &detectHandlers{svc: opt.Detector, reports: opt.Reports}
	r.Route("/v1", d.mount)
}
