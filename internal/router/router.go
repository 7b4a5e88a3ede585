package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/heptiolabs/healthcheck"

	"github.com/marcella-castro/check-pesquisa-mj/internal/handler"
	mw "github.com/marcella-castro/check-pesquisa-mj/internal/middleware"
)

func New(
	validationH *handler.ValidationHandler,
	cacheH *handler.CacheHandler,
	surveyH *handler.SurveyHandler,
	health healthcheck.Handler,
	metrics http.Handler,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	r.Get("/live", health.LiveEndpoint)
	r.Get("/ready", health.ReadyEndpoint)
	r.Method(http.MethodGet, "/metrics", metrics)

	r.Route("/api/v1", func(r chi.Router) {
		// Validation
		r.Get("/processos/{numero}/validacao", validationH.Search)
		r.Post("/validacao", validationH.Validate)

		// Cache
		r.Get("/cache/status", cacheH.Status)
		r.Post("/cache/reload", cacheH.Reload)

		// Surveys
		r.Get("/surveys", surveyH.List)
	})

	return r
}
