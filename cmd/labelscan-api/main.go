// @title         Labelscan API
// @version       0.1.0
// @description   Allergen declaration extraction over noisy label text

package main

import (
	"context"

	"labelscan/internal/core/vocab"
	"labelscan/internal/platform/config"
	"labelscan/internal/platform/logger"
	phttp "labelscan/internal/platform/net/http"
	"labelscan/internal/platform/store"

	"labelscan/internal/services/api"
	"labelscan/internal/services/detect/domain"
	"labelscan/internal/services/detect/repo"
	"labelscan/internal/services/detect/service"
)

func main() {
	// service-scoped config for HTTP etc (LABELSCAN_API_*)
	root := config.New()
	apiCfg := root.Prefix("LABELSCAN_API_")

	pgCfg := root.Prefix("SERVICE_PGSQL_")      // pgCfg lives under SERVICE_PGSQL_*
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_") // chCfg lives under SERVICE_CLICKHOUSE_*

	// bring up logging early
	l := logger.Get()

	// vocabulary is compiled once at boot; a broken rules file is fatal
	pack, err := vocab.Load()
	if err != nil {
		l.Panic().Err(err).Msg("vocab.Load failed")
	}

	// stores are optional; an unset DBURL leaves the backend disabled and
	// detection runs without persistence
	pgURL := pgCfg.MayString("DBURL", "")
	chURL := chCfg.MayString("DBURL", "")

	st, err := store.Open(
		context.Background(),
		store.Config{
			AppName: "labelscan",
			PG: store.PGConfig{
				Enabled:     pgURL != "",
				URL:         pgURL,
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", true),
			},
			CH: store.CHConfig{
				Enabled: chURL != "",
				URL:     chURL,
			},
		},
		store.WithLogger(*logger.Get()),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	var (
		reports domain.ReportStore
		audit   domain.FindingsAudit
	)
	if st.PG != nil {
		reports = repo.NewReports(st.PG)
	}
	if st.CH != nil {
		audit = repo.NewAudit(st.CH)
	}

	svc := service.New(pack, reports, audit, *l)

	// http server (reads LABELSCAN_API_PORT / LABELSCAN_API_ADDR)
	srv := phttp.NewServer(apiCfg)

	api.Mount(
		srv.Router(),
		api.Options{
			Config:         apiCfg,
			Store:          st,
			Logger:         l,
			Detector:       svc,
			Reports:        reports,
			Pack:           pack,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", true),
		},
	)

	if err := srv.Run(context.Background()); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
