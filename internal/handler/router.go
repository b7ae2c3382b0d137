package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/yuchenw/pagechat/backend/internal/handler/chat"
	middlewarePkg "github.com/yuchenw/pagechat/backend/internal/middleware"
	sessionService "github.com/yuchenw/pagechat/backend/internal/service/session"
	"github.com/yuchenw/pagechat/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(sessions *sessionService.Service, scraper chatHandler.Scraper) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	// Liveness probe.
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Server is up and running!"))
	})

	chatHandler.New(sessions, scraper).RegisterRoutes(r)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondError(w, http.StatusNotFound, "route not found")
	})

	return r
}
