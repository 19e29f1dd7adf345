package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizboard-backend/internal/service"
	ws "github.com/stemsi/quizboard-backend/internal/websocket"
)

// WSHandler upgrades scoreboard subscribers onto the hub.
type WSHandler struct {
	hub         *ws.Hub
	quizService *service.QuizService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler. allowedOrigins comes from
// config.Config.AllowedOrigins.
func NewWSHandler(hub *ws.Hub, quizService *service.QuizService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub:         hub,
		quizService: quizService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    ws.NewUpgrader(allowedOrigins),
	}
}

// ScoreboardStream godoc
// WS /ws/scoreboard
// Subscribes to scoreUpdated events. The current leaderboard is pushed once
// on connect, then on every score change.
func (h *WSHandler) ScoreboardStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error (403 on a bad origin).
		h.log.Warn().Err(err).Str("remote", c.ClientIP()).Msg("WebSocket upgrade failed")
		return
	}

	client, err := h.hub.Register(conn)
	if err != nil {
		h.log.Warn().Err(err).Msg("Rejected subscriber")
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	scores, err := h.quizService.Scoreboard(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Str("op", "scoreboard_snapshot").Str("client_id", client.ID).Msg("Failed to load leaderboard")
	} else if err := client.Send(ws.EventScoreUpdated, scores); err != nil {
		h.log.Warn().Err(err).Str("client_id", client.ID).Msg("Failed to queue leaderboard snapshot")
	}

	// Blocks until the subscriber disconnects.
	client.Run()
}
