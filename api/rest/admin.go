package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/cache"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/config"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/nav"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/session"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/world"
	mw "github.com/DSnider-CodeSample/TCTB-CodeSample/middleware"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/scheduler"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	wm      *world.WorldManager
	sm      *session.Manager
	sched   *scheduler.Scheduler
	cache   cache.Cache
	sec     config.SecurityConfig
	layouts map[string]*nav.Layout
	logger  *zap.Logger
}

// NewAdminHandler creates an AdminHandler. layouts are the levels that
// StartRoom may bring up, keyed by name.
func NewAdminHandler(
	wm *world.WorldManager,
	sm *session.Manager,
	sched *scheduler.Scheduler,
	c cache.Cache,
	sec config.SecurityConfig,
	layouts []*nav.Layout,
	logger *zap.Logger,
) *AdminHandler {
	byName := make(map[string]*nav.Layout, len(layouts))
	for _, l := range layouts {
		byName[l.Name] = l
	}
	return &AdminHandler{wm: wm, sm: sm, sched: sched, cache: c, sec: sec, layouts: byName, logger: logger}
}

// Metrics returns server health metrics.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected_clients": h.sm.Count(),
		"active_rooms":      h.wm.ActiveRoomCount(),
		"scheduler_tasks":   h.sched.ListTickers(),
	})
}

// ListClients returns every connected WebSocket client.
// GET /api/admin/clients
func (h *AdminHandler) ListClients(c *gin.Context) {
	sessions := h.sm.All()
	type clientInfo struct {
		ClientID string `json:"client_id"`
		Room     string `json:"room"`
		Role     string `json:"role"`
	}
	result := make([]clientInfo, 0, len(sessions))
	for _, s := range sessions {
		result = append(result, clientInfo{ClientID: s.ClientID, Room: s.Room, Role: s.Role})
	}
	c.JSON(http.StatusOK, gin.H{"clients": result, "count": len(result)})
}

// KickClient forcibly disconnects a client.
// POST /api/admin/clients/:id/kick
func (h *AdminHandler) KickClient(c *gin.Context) {
	id := c.Param("id")
	s := h.sm.Get(id)
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "client not connected"})
		return
	}
	s.Close()
	h.logger.Info("admin kicked client", zap.String("client_id", id))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type issueTokenRequest struct {
	ClientID string        `json:"client_id" binding:"required"`
	Room     string        `json:"room"      binding:"required"`
	Role     string        `json:"role"`
	TTL      time.Duration `json:"ttl"` // nanoseconds; zero uses security.jwt_ttl_h
}

// IssueToken signs a client token bound to one room.
// POST /api/admin/tokens
func (h *AdminHandler) IssueToken(c *gin.Context) {
	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Role {
	case "":
		req.Role = mw.RoleGame
	case mw.RoleGame, mw.RoleObserver:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be game or observer"})
		return
	}
	ttl := req.TTL
	if ttl <= 0 {
		ttl = h.sec.JWTTTLH
	}
	token, err := mw.GenerateToken(req.ClientID, req.Room, req.Role, h.sec.JWTSecret, ttl)
	if err != nil {
		h.logger.Error("sign token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": time.Now().Add(ttl)})
}

// RevokeToken marks a token as revoked until it would have expired and
// disconnects its client.
// POST /api/admin/tokens/revoke
func (h *AdminHandler) RevokeToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	claims, err := mw.ParseToken(req.Token, h.sec.JWTSecret)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token"})
		return
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := h.cache.Set(c.Request.Context(), mw.RevokedKey(claims.ID), "1", ttl); err != nil {
		h.logger.Error("revoke token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cache error"})
		return
	}
	if s := h.sm.Get(claims.ClientID); s != nil {
		s.Close()
	}
	h.logger.Info("admin revoked token", zap.String("client_id", claims.ClientID))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// StartRoom brings up a configured layout that is not running.
// POST /api/admin/rooms/:room
func (h *AdminHandler) StartRoom(c *gin.Context) {
	layout, ok := h.layouts[c.Param("room")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown layout"})
		return
	}
	room, err := h.wm.Start(c.Request.Context(), layout)
	if errors.Is(err, world.ErrRoomExists) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("start room", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, room.Info())
}

// StopRoom stops a running room and ends its journal session.
// DELETE /api/admin/rooms/:room
func (h *AdminHandler) StopRoom(c *gin.Context) {
	err := h.wm.Stop(c.Request.Context(), c.Param("room"))
	if errors.Is(err, world.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("stop room", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListSchedulerTasks returns names of all registered ticker tasks.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.ListTickers()})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// WARNING: if adminKey is empty all admin endpoints are disabled (503) so the
// server cannot be accidentally deployed without protection. Set a non-empty
// server.admin_key in config to enable admin routes.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
