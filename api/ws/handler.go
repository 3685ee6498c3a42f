package ws

import (
	"errors"
	"net/http"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/config"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/ai"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/session"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/world"
	mw "github.com/DSnider-CodeSample/TCTB-CodeSample/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler is the Gin handler for GET /ws.
type Handler struct {
	sm       *session.Manager
	wm       *world.WorldManager
	router   *Router
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket Handler.
// sec.AllowedOrigins controls which WebSocket origins are accepted.
// An empty slice permits all origins (development only).
func NewHandler(
	sec config.SecurityConfig,
	sm *session.Manager,
	wm *world.WorldManager,
	router *Router,
	logger *zap.Logger,
) *Handler {
	h := &Handler{
		sm:     sm,
		wm:     wm,
		router: router,
		logger: logger,
	}
	allowed := sec.AllowedOrigins
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true // dev mode: allow all
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowed {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
	return h
}

// ServeWS handles GET /ws?token=<jwt>. Mount it behind middleware.Auth; the
// token's room claim picks the room the client joins.
func (h *Handler) ServeWS(c *gin.Context) {
	claims := mw.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	room, err := h.wm.Get(claims.Room)
	if err != nil {
		if errors.Is(err, world.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", zap.Error(err))
		return
	}

	sess := session.NewClientSession(claims.ClientID, room.ID, claims.Role, conn, h.logger)
	h.sm.Register(sess)
	room.AddClient(sess)
	sendWelcome(sess, room)

	// blocks until the connection closes
	h.readPump(sess, room)
}

// readPump reads messages from the WebSocket connection and dispatches them.
func (h *Handler) readPump(s *session.ClientSession, room *world.Room) {
	defer h.handleDisconnect(s, room)

	s.SetReadDeadline()
	s.Conn.SetPongHandler(func(string) error {
		s.SetReadDeadline()
		return nil
	})

	for {
		_, raw, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived) {
				h.logger.Warn("ws unexpected close",
					zap.String("client_id", s.ClientID),
					zap.Error(err))
			}
			return
		}
		// any message counts as a heartbeat
		s.SetReadDeadline()
		h.router.Dispatch(s, raw)
	}
}

// handleDisconnect cleans up the session after the connection closes.
func (h *Handler) handleDisconnect(s *session.ClientSession, room *world.Room) {
	s.Close()
	room.RemoveClient(s)
	h.sm.Unregister(s)
	h.logger.Info("client disconnected",
		zap.String("client_id", s.ClientID),
		zap.String("room", room.ID))
}

type welcomePayload struct {
	ClientID string            `json:"client_id"`
	Role     string            `json:"role"`
	Room     world.RoomInfo    `json:"room"`
	Monsters []ai.Snapshot     `json:"monsters"`
	Player   *world.PlayerView `json:"player,omitempty"`
}

func sendWelcome(s *session.ClientSession, room *world.Room) {
	p := welcomePayload{
		ClientID: s.ClientID,
		Role:     s.Role,
		Room:     room.Info(),
		Monsters: room.Snapshots(),
	}
	if v, ok := room.Player(); ok {
		p.Player = &v
	}
	pkt, err := session.NewPacket("welcome", p)
	if err != nil {
		return
	}
	s.Send(pkt)
}
