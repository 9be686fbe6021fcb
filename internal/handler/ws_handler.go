/*
Package handler provides the HTTP handlers and routing setup for the
medichat server.

This file upgrades signaling connections. A fresh transport id is assigned
on every upgrade and handed to the per-connection lifecycle, which runs the
write pump in the background and the read pump on the request goroutine.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"medichat/internal/app/signal"
	"medichat/internal/pkg/errs"
	"medichat/internal/pkg/limiter"
	"medichat/internal/pkg/logx"
	"medichat/internal/pkg/randx"
	"medichat/internal/pkg/resp"
)

// HandleWebSocket upgrades the request and runs the connection lifecycle
// until the transport drops.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)
		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		connectionID := randx.ConnectionID()

		client := signal.NewClient(deps.Registry, deps.Rooms, deps.Relay, conn, connectionID)

		go client.WritePump()

		logx.Info("WebSocket connection established", "connection_id", connectionID)

		client.ReadPump()
	}
}
