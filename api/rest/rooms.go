package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/audit"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/cache"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/world"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// RoomHandler serves read-only views of running rooms for debug tooling.
type RoomHandler struct {
	wm      *world.WorldManager
	cache   cache.Cache
	journal *audit.Journal
	logger  *zap.Logger
}

// NewRoomHandler creates a RoomHandler. journal may be nil.
func NewRoomHandler(wm *world.WorldManager, c cache.Cache, j *audit.Journal, logger *zap.Logger) *RoomHandler {
	return &RoomHandler{wm: wm, cache: c, journal: j, logger: logger}
}

// List handles GET /api/rooms.
func (h *RoomHandler) List(c *gin.Context) {
	rooms := h.wm.Rooms()
	infos := make([]world.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		infos = append(infos, r.Info())
	}
	c.JSON(http.StatusOK, gin.H{"rooms": infos})
}

// Get handles GET /api/rooms/:room and returns the live monster snapshots.
func (h *RoomHandler) Get(c *gin.Context) {
	room, ok := h.room(c)
	if !ok {
		return
	}
	resp := gin.H{"room": room.Info(), "monsters": room.Snapshots()}
	if p, ok := room.Player(); ok {
		resp["player"] = p
	}
	c.JSON(http.StatusOK, resp)
}

// Monster handles GET /api/rooms/:room/monsters/:id.
func (h *RoomHandler) Monster(c *gin.Context) {
	room, ok := h.room(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	snap, err := room.Snapshot(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Cached handles GET /api/rooms/:room/cached: the snapshots as last
// published to the shared cache, which may lag the live room.
func (h *RoomHandler) Cached(c *gin.Context) {
	roomID := c.Param("room")
	fields, err := h.cache.HGetAll(c.Request.Context(), world.MonstersKey(roomID))
	if err != nil {
		h.logger.Error("read cached snapshots", zap.String("room", roomID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cache error"})
		return
	}
	monsters := make(map[string]json.RawMessage, len(fields))
	for id, raw := range fields {
		monsters[id] = json.RawMessage(raw)
	}
	resp := gin.H{"monsters": monsters}
	player, err := h.cache.Get(c.Request.Context(), world.PlayerKey(roomID))
	switch {
	case err == nil:
		resp["player"] = json.RawMessage(player)
	case !cache.IsNotFound(err):
		h.logger.Warn("read cached player", zap.String("room", roomID), zap.Error(err))
	}
	c.JSON(http.StatusOK, resp)
}

// Transitions handles GET /api/rooms/:room/transitions?limit=N, newest first,
// from the cached feed.
func (h *RoomHandler) Transitions(c *gin.Context) {
	limit := parseLimit(c)
	items, err := h.cache.LRange(c.Request.Context(), world.FeedKey(c.Param("room")), 0, int64(limit-1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cache error"})
		return
	}
	events := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		events = append(events, json.RawMessage(it))
	}
	c.JSON(http.StatusOK, gin.H{"transitions": events})
}

// Journal handles GET /api/rooms/:room/journal?limit=N, newest first.
func (h *RoomHandler) Journal(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "journal disabled"})
		return
	}
	logs, err := h.journal.Recent(c.Request.Context(), c.Param("room"), parseLimit(c))
	if err != nil {
		h.logger.Error("read journal", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transitions": logs})
}

func (h *RoomHandler) room(c *gin.Context) (*world.Room, bool) {
	room, err := h.wm.Get(c.Param("room"))
	if errors.Is(err, world.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil, false
	}
	return room, true
}

func parseLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
