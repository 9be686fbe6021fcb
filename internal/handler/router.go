/*
Package handler provides the HTTP handlers and routing setup for the
medichat server.

This file defines the main Router: CORS, request logging, rate limiting,
the boundary API endpoints, and the signaling WebSocket route.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"medichat/internal/pkg/limiter"
	"medichat/internal/pkg/logx"
	"medichat/internal/pkg/resp"
)

const (
	// SignalRate limits WebSocket upgrades per IP.
	SignalRate  = 0.2
	SignalBurst = 5

	// ScanRate limits prescription scans per IP; OCR is expensive upstream.
	ScanRate  = 0.1
	ScanBurst = 3
)

// Router builds the chi routing table for the application.
func Router(deps *AppDeps) http.Handler {
	signalLimiter := limiter.NewIPRateLimiter(rate.Limit(SignalRate), SignalBurst)
	scanLimiter := limiter.NewIPRateLimiter(rate.Limit(ScanRate), ScanBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]string{
			"status":  "ok",
			"service": "medichat server",
		})
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/text-to-speech", HandleTextToSpeech(deps))
		api.Post("/chat", HandleChat(deps))

		api.Method(http.MethodPost, "/scan-prescription", scanLimiter.Middleware(HandleScanPrescription(deps)))
		api.Get("/medications", HandleListMedications(deps))
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, signalLimiter, deps))

	return r
}
