package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yourorg/orchestrate/internal/events"
	"github.com/yourorg/orchestrate/internal/observability/metrics"
)

const (
	boardWriteWait = 10 * time.Second
	boardPingEvery = 30 * time.Second
)

// BoardFeedHandler streams public-safe booking events over a websocket,
// feeding the lobby room display. The feed is anonymous: every payload
// has already been through the public projection before it reaches the
// hub.
type BoardFeedHandler struct {
	hub            *events.Hub
	logger         *slog.Logger
	allowedOrigins []string
}

// NewBoardFeedHandler creates a new board feed handler.
func NewBoardFeedHandler(hub *events.Hub, logger *slog.Logger, allowedOrigins []string) *BoardFeedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BoardFeedHandler{hub: hub, logger: logger, allowedOrigins: allowedOrigins}
}

// upgrader is initialized per-request to use instance's allowed origins
func (h *BoardFeedHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Allow requests with no origin (e.g., non-browser clients)
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/board.
func (h *BoardFeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	metrics.IncrementBoardClients()
	defer metrics.DecrementBoardClients()

	eventCh, cancel := h.hub.Subscribe()
	defer cancel()

	// Drain client frames so close messages and pongs are processed.
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(boardPingEvery)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-eventCh:
			if !ok {
				return
			}
			ws.SetWriteDeadline(time.Now().Add(boardWriteWait))
			if err := ws.WriteJSON(evt); err != nil {
				h.logger.Debug("board client write failed", slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(boardWriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
