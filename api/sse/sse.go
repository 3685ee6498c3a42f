package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/cache"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/world"
	mw "github.com/DSnider-CodeSample/TCTB-CodeSample/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const keepaliveInterval = 30 * time.Second

// Handler streams a room's cue and transition events to debug overlays.
type Handler struct {
	pubsub cache.PubSub
	logger *zap.Logger
}

// NewHandler creates a new SSE Handler.
func NewHandler(pubsub cache.PubSub, logger *zap.Logger) *Handler {
	return &Handler{pubsub: pubsub, logger: logger}
}

// ServeSSE handles GET /sse?token=<jwt>[&room=<id>]. Mount it behind
// middleware.Auth. The room defaults to the token's room claim.
func (h *Handler) ServeSSE(c *gin.Context) {
	claims := mw.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	room := c.DefaultQuery("room", claims.Room)
	if room == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room required"})
		return
	}

	subCtx, subCancel := context.WithCancel(c.Request.Context())
	defer subCancel()

	msgCh, unsub, err := h.pubsub.Subscribe(subCtx, world.EventsChannel(room))
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscribe failed"})
		return
	}
	defer unsub()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"room\":%q}\n\n", room)
	c.Writer.Flush()

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", eventName(msg.Payload), msg.Payload)
			c.Writer.Flush()

		case <-ticker.C:
			// comment line keeps proxies from timing out
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}

// eventName is the SSE event field for a published room event.
func eventName(payload string) string {
	var head struct {
		Type string `json:"type"`
	}
	if json.Unmarshal([]byte(payload), &head) != nil || head.Type == "" {
		return "message"
	}
	return head.Type
}
