/*
Package handler provides the HTTP handlers and routing setup for the local UI bridge.

This file defines the main Router, applying middleware like CORS, request IDs and
logging before delegating requests to the API, metrics and WebSocket handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"portalsync/internal/pkg/logx"
	"portalsync/internal/pkg/resp"
)

// Router sets up the bridge routing table.
func Router(deps *AppDeps) http.Handler {
	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "Portal Sync Engine",
			"store":   deps.Config.StoreBackend,
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Route("/session", func(s chi.Router) {
			s.Get("/", HandleGetSession(deps))
			s.Post("/login", HandleLogin(deps))
			s.Post("/logout", HandleLogout(deps))
		})

		api.Get("/profile", HandleGetProfile(deps))
		api.Post("/profile", HandleUpdateProfile(deps))
		api.Get("/profiles/{name}", HandleGetStoredProfile(deps))

		api.Get("/messages", HandleListMessages(deps))
		api.Post("/messages", HandleSendMessage(deps))
		api.Post("/messages/read", HandleMarkRead(deps))
		api.Get("/unread", HandleUnreadCount(deps))

		api.Get("/survey", HandleGetSurvey(deps))
		api.Post("/survey", HandleCompleteSurvey(deps))

		api.Route("/notification", func(n chi.Router) {
			n.Get("/", HandleGetNotification(deps))
			n.Post("/dismiss", HandleDismissNotification(deps))
			n.Post("/click", HandleClickNotification(deps))
		})
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, deps))

	return r
}
