package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"portalsync/internal/pkg/errs"
	"portalsync/internal/pkg/logx"
	"portalsync/internal/pkg/resp"
)

// HandleWebSocket upgrades the connection and streams session events to the UI
// until either side closes it.
func HandleWebSocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !deps.ConnectLimiter.Allow(ip) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		// Subscribe first so nothing published right after the handshake is missed.
		events, cancel := deps.Sessions.Subscribe()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			cancel()
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := newEventClient(conn, events, cancel)

		go client.writePump()

		logx.Debug("Event stream established")

		client.readPump()
	}
}
