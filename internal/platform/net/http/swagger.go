package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// docJSON is a seam so builds with generated docs (and tests) can swap
// the served spec; the default is a skeleton that keeps the UI loading
var docJSON = func() string {
	return `{"openapi":"3.0.3","info":{"title":"Labelscan API","version":"0.1.0"},"paths":{}}`
}

// MountSwagger mounts the swagger UI and spec under /docs if enabled
func MountSwagger(r Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/docs/doc.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write([]byte(docJSON()))
	})
	r.Handle("/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName("labelscan"),
		httpSwagger.URL("/docs/doc.json"),
	))
}
