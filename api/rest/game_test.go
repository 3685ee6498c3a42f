package rest_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/api/rest"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/config"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/ai"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/world"
	mw "github.com/DSnider-CodeSample/TCTB-CodeSample/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newGameRouter(env *testEnv) *gin.Engine {
	sec := config.SecurityConfig{JWTSecret: testSecret}
	h := rest.NewGameHandler(env.wm, nopLogger())
	r := gin.New()
	g := r.Group("/api/game", mw.Auth(sec, env.cache), mw.RequireRole(mw.RoleGame))
	g.POST("/sound", h.Sound)
	g.PUT("/player", h.SetPlayer)
	g.DELETE("/player", h.ClearPlayer)
	g.POST("/footstep", h.Footstep)
	g.POST("/monsters/:id/activate", h.Activate)
	g.POST("/monsters/:id/follow", h.Follow)
	g.POST("/player-death", h.PlayerDeath)
	return r
}

func bearer(t *testing.T, room, role string) map[string]string {
	t.Helper()
	token, err := mw.GenerateToken("client-1", room, role, testSecret, time.Hour)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestGameHandler_RequiresGameRole(t *testing.T) {
	env := newTestEnv(t, true)
	r := newGameRouter(env)

	w := doRequest(r, http.MethodPost, "/api/game/player-death", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(r, http.MethodPost, "/api/game/player-death", "", bearer(t, "hall", mw.RoleObserver))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGameHandler_Sound(t *testing.T) {
	env := newTestEnv(t, true)
	r := newGameRouter(env)
	auth := bearer(t, "hall", mw.RoleGame)

	w := doRequest(r, http.MethodPost, "/api/game/sound", `{"origin":[350,150,0],"radius":1000}`, auth)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Reactions []world.SoundReaction `json:"reactions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []world.SoundReaction{
		{MonsterID: 1, Reaction: "pursue"},
		{MonsterID: 2, Reaction: "none"},
	}, resp.Reactions)

	snap, err := hall(t, env).Snapshot(1)
	require.NoError(t, err)
	assert.Equal(t, "pursue", snap.Mode)
	assert.Equal(t, [3]float64{350, 150, 0}, snap.Target)
}

func TestGameHandler_SoundInvalid(t *testing.T) {
	env := newTestEnv(t, true)
	r := newGameRouter(env)
	auth := bearer(t, "hall", mw.RoleGame)

	w := doRequest(r, http.MethodPost, "/api/game/sound", `{"origin":[350,150,0],"radius":0}`, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/api/game/sound", `{`, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGameHandler_UnknownRoom(t *testing.T) {
	env := newTestEnv(t, true)
	w := doRequest(newGameRouter(env), http.MethodPost, "/api/game/player-death", "", bearer(t, "attic", mw.RoleGame))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGameHandler_PlayerStateAndFootstep(t *testing.T) {
	env := newTestEnv(t, true)
	r := newGameRouter(env)
	auth := bearer(t, "hall", mw.RoleGame)

	w := doRequest(r, http.MethodPost, "/api/game/footstep", "", auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"heard":false,"reactions":[]}`, w.Body.String(), "no player yet")

	w = doRequest(r, http.MethodPut, "/api/game/player", `{"position":[450,150,0],"style":"sprint"}`, auth)
	require.Equal(t, http.StatusOK, w.Code)
	var view world.PlayerView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "sprint", view.Style)
	assert.False(t, view.Protected)

	w = doRequest(r, http.MethodPost, "/api/game/footstep", "", auth)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Heard     bool                  `json:"heard"`
		Reactions []world.SoundReaction `json:"reactions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Heard)
	require.Len(t, resp.Reactions, 2)
	assert.Equal(t, "go_to_player", resp.Reactions[0].Reaction)

	w = doRequest(r, http.MethodPut, "/api/game/player", `{"position":[450,150,0],"style":"hop"}`, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodDelete, "/api/game/player", "", auth)
	require.Equal(t, http.StatusOK, w.Code)
	_, present := hall(t, env).Player()
	assert.False(t, present)
}

func TestGameHandler_ActivateFollowDeath(t *testing.T) {
	env := newTestEnv(t, true)
	r := newGameRouter(env)
	auth := bearer(t, "hall", mw.RoleGame)
	room := hall(t, env)
	room.SetPlayer(ai.Vec{X: 450, Y: 150}, world.StyleWalk)

	w := doRequest(r, http.MethodPost, "/api/game/monsters/2/activate", "", auth)
	require.Equal(t, http.StatusOK, w.Code)
	snap, _ := room.Snapshot(2)
	assert.Equal(t, "wander", snap.Mode)

	w = doRequest(r, http.MethodPost, "/api/game/monsters/1/follow", "", auth)
	require.Equal(t, http.StatusOK, w.Code)
	snap, _ = room.Snapshot(1)
	assert.Equal(t, "go_to_player", snap.Mode)

	w = doRequest(r, http.MethodPost, "/api/game/monsters/7/follow", "", auth)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doRequest(r, http.MethodPost, "/api/game/monsters/x/activate", "", auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/api/game/player-death", "", auth)
	require.Equal(t, http.StatusOK, w.Code)
	for _, s := range room.Snapshots() {
		assert.Equal(t, "wander", s.Mode)
	}
}

func TestGameHandler_ActivateAll(t *testing.T) {
	env := newTestEnv(t, true)
	w := doRequest(newGameRouter(env), http.MethodPost, "/api/game/monsters/0/activate", "", bearer(t, "hall", mw.RoleGame))
	require.Equal(t, http.StatusOK, w.Code)
	for _, s := range hall(t, env).Snapshots() {
		assert.NotEqual(t, "inactive", s.Mode)
	}
}
