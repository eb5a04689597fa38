package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/avelardi/supportlens/internal/handler/sentiment"
	"github.com/avelardi/supportlens/internal/handler/ws"
	middlewarePkg "github.com/avelardi/supportlens/internal/middleware"
	"github.com/avelardi/supportlens/internal/service/analysis"
	"github.com/avelardi/supportlens/internal/service/registry"
	"github.com/avelardi/supportlens/internal/service/relay"
	"github.com/avelardi/supportlens/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(engine *relay.Engine, reg *registry.Registry, analyzer analysis.Analyzer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"message": "Customer Support Sentiment Analysis API",
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	wsHandler := ws.New(engine, reg)
	wsHandler.RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		sentimentHandler := sentiment.New(analyzer)
		sentimentHandler.RegisterRoutes(api)
	})

	return r
}
