package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chathandler "github.com/restin-labs/insight-chat/internal/handler/chat"
	streamhandler "github.com/restin-labs/insight-chat/internal/handler/stream"
	wshandler "github.com/restin-labs/insight-chat/internal/handler/ws"
	middlewarePkg "github.com/restin-labs/insight-chat/internal/middleware"
	chatservice "github.com/restin-labs/insight-chat/internal/service/chat"
	"github.com/restin-labs/insight-chat/internal/service/session"
	"github.com/restin-labs/insight-chat/internal/stream"
	"github.com/restin-labs/insight-chat/pkg/utils"
)

// HealthInfo is reported by the liveness endpoint.
type HealthInfo struct {
	Status         string `json:"status"`
	SessionBackend string `json:"session_backend"`
	EngineScript   string `json:"engine_script"`
}

// NewRouter wires HTTP routes to core services.
func NewRouter(coordinator *chatservice.Coordinator, store session.Store, emitter stream.Emitter, health HealthInfo) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chathandler.New(coordinator, store, streamhandler.New(emitter))
	wsHandler := wshandler.New(coordinator, emitter)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)

		health.Status = "ok"
		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondJSON(w, http.StatusOK, health)
		})
	})

	return r
}
