package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/world"
	mw "github.com/DSnider-CodeSample/TCTB-CodeSample/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GameHandler accepts game events over plain HTTP for clients that do not
// hold a WebSocket open. The room comes from the caller's token; routes
// should be protected by middleware.Auth and RequireRole(RoleGame).
type GameHandler struct {
	wm     *world.WorldManager
	logger *zap.Logger
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(wm *world.WorldManager, logger *zap.Logger) *GameHandler {
	return &GameHandler{wm: wm, logger: logger}
}

// Sound handles POST /api/game/sound.
func (h *GameHandler) Sound(c *gin.Context) {
	var req world.SoundReport
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ev, err := req.Event()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room, ok := h.room(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"reactions": room.ReportSound(ev)})
}

// SetPlayer handles PUT /api/game/player.
func (h *GameHandler) SetPlayer(c *gin.Context) {
	var req world.PlayerState
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room, ok := h.room(c)
	if !ok {
		return
	}
	view, err := req.Apply(room)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// ClearPlayer handles DELETE /api/game/player.
func (h *GameHandler) ClearPlayer(c *gin.Context) {
	room, ok := h.room(c)
	if !ok {
		return
	}
	room.ClearPlayer()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Footstep handles POST /api/game/footstep. A debounced footstep reports
// heard=false.
func (h *GameHandler) Footstep(c *gin.Context) {
	room, ok := h.room(c)
	if !ok {
		return
	}
	reactions, heard := room.Footstep()
	if reactions == nil {
		reactions = []world.SoundReaction{}
	}
	c.JSON(http.StatusOK, gin.H{"heard": heard, "reactions": reactions})
}

// Activate handles POST /api/game/monsters/:id/activate. An id of 0 wakes
// every monster in the room.
func (h *GameHandler) Activate(c *gin.Context) {
	id, ok := monsterID(c)
	if !ok {
		return
	}
	room, ok := h.room(c)
	if !ok {
		return
	}
	if id == 0 {
		room.ActivateAll()
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	h.monsterResult(c, room.Activate(id))
}

// Follow handles POST /api/game/monsters/:id/follow.
func (h *GameHandler) Follow(c *gin.Context) {
	id, ok := monsterID(c)
	if !ok {
		return
	}
	room, ok := h.room(c)
	if !ok {
		return
	}
	h.monsterResult(c, room.Follow(id))
}

// PlayerDeath handles POST /api/game/player-death.
func (h *GameHandler) PlayerDeath(c *gin.Context) {
	room, ok := h.room(c)
	if !ok {
		return
	}
	room.PlayerDeath()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *GameHandler) room(c *gin.Context) (*world.Room, bool) {
	claims := mw.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	room, err := h.wm.Get(claims.Room)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return room, true
}

func (h *GameHandler) monsterResult(c *gin.Context, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case errors.Is(err, world.ErrMonsterNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("monster command", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func monsterID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
