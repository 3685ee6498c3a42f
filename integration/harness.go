package integration

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apirest "github.com/DSnider-CodeSample/TCTB-CodeSample/api/rest"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/api/sse"
	apows "github.com/DSnider-CodeSample/TCTB-CodeSample/api/ws"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/audit"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/cache"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/config"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/hook"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/nav"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/session"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/world"
	mw "github.com/DSnider-CodeSample/TCTB-CodeSample/middleware"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/scheduler"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/testutil"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// AdminKey guards the test server's admin routes.
const AdminKey = "integration-admin"

// hallYAML is a straight corridor: monster 1 patrols the west end, monster 2
// sleeps by the locker at the east end.
const hallYAML = `
name: hall
cell_size: 100
seed: 3
rows:
  - "##########"
  - "#........#"
  - "##########"
runaway_locations: [[150, 150, 0], [850, 150, 0]]
safety_volumes:
  - {name: locker, min: [800, 100, -10], max: [900, 200, 200]}
player_start: [450, 150, 0]
monsters:
  - {id: 1, position: [150, 150, 0], active: true}
  - {id: 2, position: [850, 150, 0]}
`

// TestServer wraps a real HTTP server with every subsystem wired together.
type TestServer struct {
	DB      *gorm.DB
	Cache   cache.Cache
	PubSub  cache.PubSub
	Journal *audit.Journal
	SM      *session.Manager
	WM      *world.WorldManager
	Sched   *scheduler.Scheduler
	Server  *httptest.Server
	URL     string // http://127.0.0.1:<port>
	WSURL   string // ws://127.0.0.1:<port>/ws
	Sec     config.SecurityConfig
}

// NewTestServer creates a fully wired server running the hall room.
// It mirrors the dependency wiring in main.go. tick is the room tick period;
// pass an hour to keep monsters still.
func NewTestServer(t *testing.T, tick time.Duration) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// ---- Infrastructure ----
	db := testutil.SetupTestDB(t)
	c, pubsub := testutil.SetupTestCache(t)
	logger := zap.NewNop()
	cfg := config.Default()

	sec := config.SecurityConfig{
		JWTSecret:      "integration-test-secret",
		JWTTTLH:        72 * time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
		AllowedOrigins: []string{}, // allow all origins
	}

	layout, err := nav.ParseLayout([]byte(hallYAML))
	require.NoError(t, err)
	layouts := []*nav.Layout{layout}

	// ---- World ----
	journal := audit.New(db, audit.Options{FlushInterval: 50 * time.Millisecond}, logger)
	sched := scheduler.New(logger)
	pub := world.NewPublisher(c, pubsub, journal, world.PublisherOptions{
		FeedLen:     cfg.Game.TransitionFeed,
		SnapshotTTL: cfg.Game.SnapshotTTL,
	}, logger)
	hooks := hook.NewRegistry()
	hooks.Register(hook.BeforeSound, 0, "max-sound-radius", world.ClampSoundRadius(cfg.Game.MaxSoundRadius))
	wm := world.NewWorldManager(sched, pub, world.Options{
		Tick:    tick,
		Monster: cfg.Monster,
		Noise:   cfg.Noise,
		Hooks:   hooks,
	}, logger)
	_, err = wm.Start(context.Background(), layout)
	require.NoError(t, err)
	sm := session.NewManager(logger)

	// ---- WS Router ----
	wsRouter := apows.NewRouter(logger)
	apows.NewGameHandlers(wm, logger).RegisterHandlers(wsRouter)

	// ---- Gin HTTP Server ----
	r := gin.New()
	r.Use(mw.TraceID(), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "rooms": wm.ActiveRoomCount()})
	})

	auth := mw.Auth(sec, c)

	// ---- REST API routes (mirrors main.go) ----
	roomH := apirest.NewRoomHandler(wm, c, journal, logger)
	gameH := apirest.NewGameHandler(wm, logger)
	adminH := apirest.NewAdminHandler(wm, sm, sched, c, sec, layouts, logger)

	api := r.Group("/api")
	{
		roomsG := api.Group("/rooms")
		roomsG.Use(auth)
		roomsG.GET("", roomH.List)
		roomsG.GET("/:room", roomH.Get)
		roomsG.GET("/:room/cached", roomH.Cached)
		roomsG.GET("/:room/monsters/:id", roomH.Monster)
		roomsG.GET("/:room/transitions", roomH.Transitions)
		roomsG.GET("/:room/journal", roomH.Journal)

		gameG := api.Group("/game")
		gameG.Use(auth, mw.RequireRole(mw.RoleGame))
		gameG.POST("/sound", gameH.Sound)
		gameG.PUT("/player", gameH.SetPlayer)
		gameG.DELETE("/player", gameH.ClearPlayer)
		gameG.POST("/footstep", gameH.Footstep)
		gameG.POST("/monsters/:id/activate", gameH.Activate)
		gameG.POST("/monsters/:id/follow", gameH.Follow)
		gameG.POST("/player-death", gameH.PlayerDeath)

		adminG := api.Group("/admin")
		adminG.Use(apirest.AdminAuth(AdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.GET("/clients", adminH.ListClients)
		adminG.POST("/clients/:id/kick", adminH.KickClient)
		adminG.POST("/tokens", adminH.IssueToken)
		adminG.POST("/tokens/revoke", adminH.RevokeToken)
		adminG.POST("/rooms/:room", adminH.StartRoom)
		adminG.DELETE("/rooms/:room", adminH.StopRoom)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
	}

	// ---- WebSocket / SSE ----
	wsH := apows.NewHandler(sec, sm, wm, wsRouter, logger)
	r.GET("/ws", auth, wsH.ServeWS)
	r.GET("/sse", auth, sse.NewHandler(pubsub, logger).ServeSSE)

	// ---- Start server ----
	server := httptest.NewServer(r)
	url := server.URL
	wsURL := "ws" + url[len("http"):] + "/ws"

	ts := &TestServer{
		DB:      db,
		Cache:   c,
		PubSub:  pubsub,
		Journal: journal,
		SM:      sm,
		WM:      wm,
		Sched:   sched,
		Server:  server,
		URL:     url,
		WSURL:   wsURL,
		Sec:     sec,
	}
	t.Cleanup(ts.Close)
	return ts
}

// Close shuts down the test server and all game systems. Safe to call twice.
func (ts *TestServer) Close() {
	ts.SM.CloseAll(time.Second)
	ts.Server.Close()
	ts.WM.StopAll(context.Background())
	ts.Sched.Stop()
	ts.Journal.Stop(context.Background())
}

// --- HTTP helpers ---

func (ts *TestServer) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func bearer(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// PostJSON sends a POST request with JSON body and optional Bearer token.
func (ts *TestServer) PostJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodPost, path, body, bearer(token))
}

// Put sends a PUT request with JSON body and optional Bearer token.
func (ts *TestServer) Put(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodPut, path, body, bearer(token))
}

// Get sends a GET request with optional Bearer token.
func (ts *TestServer) Get(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodGet, path, nil, bearer(token))
}

// Admin sends a request carrying the admin key.
func (ts *TestServer) Admin(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	return ts.do(t, method, path, body, map[string]string{"X-Admin-Key": AdminKey})
}

// ReadJSON reads and decodes a JSON response body into the given target.
func ReadJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), "body: %s", string(data))
}

// --- Auth helpers ---

// IssueToken asks the admin API for a token bound to room.
func (ts *TestServer) IssueToken(t *testing.T, clientID, room, role string) string {
	t.Helper()
	resp := ts.Admin(t, http.MethodPost, "/api/admin/tokens", map[string]string{
		"client_id": clientID,
		"room":      room,
		"role":      role,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result struct {
		Token string `json:"token"`
	}
	ReadJSON(t, resp, &result)
	return result.Token
}

// --- WebSocket client ---

// WSClient wraps a gorilla/websocket connection for integration testing.
// Uses a background readLoop to avoid gorilla/websocket's SetReadDeadline bug.
type WSClient struct {
	Conn   *websocket.Conn
	t      *testing.T
	seq    uint64
	readCh chan readResult // buffered channel from readLoop
}

type readResult struct {
	data []byte
	err  error
}

// Packet is a decoded server push.
type Packet struct {
	Seq     uint64          `json:"seq"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Decode unmarshals the packet payload into v.
func (p Packet) Decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(p.Payload, v), "payload: %s", string(p.Payload))
}

// ConnectWS dials the test server's WS endpoint with the given JWT token.
func (ts *TestServer) ConnectWS(t *testing.T, token string) *WSClient {
	t.Helper()
	dialer := websocket.Dialer{}
	conn, resp, err := dialer.Dial(ts.WSURL+"?token="+token, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	require.NoError(t, err, "WS dial failed")
	wc := &WSClient{Conn: conn, t: t, readCh: make(chan readResult, 256)}
	go wc.readLoop()
	t.Cleanup(wc.Close)
	return wc
}

// readLoop continuously reads from the websocket in a dedicated goroutine.
func (wc *WSClient) readLoop() {
	for {
		_, data, err := wc.Conn.ReadMessage()
		wc.readCh <- readResult{data, err}
		if err != nil {
			return
		}
	}
}

// Send writes a packet to the WebSocket.
func (wc *WSClient) Send(msgType string, payload interface{}) {
	wc.t.Helper()
	seq := atomic.AddUint64(&wc.seq, 1)
	payloadJSON, err := json.Marshal(payload)
	require.NoError(wc.t, err)
	data, err := json.Marshal(Packet{Seq: seq, Type: msgType, Payload: payloadJSON})
	require.NoError(wc.t, err)
	require.NoError(wc.t, wc.Conn.WriteMessage(websocket.TextMessage, data))
}

// RecvAny reads one packet, returning an error on timeout or read failure.
func (wc *WSClient) RecvAny(timeout time.Duration) (Packet, error) {
	select {
	case res := <-wc.readCh:
		if res.err != nil {
			return Packet{}, res.err
		}
		var pkt Packet
		err := json.Unmarshal(res.data, &pkt)
		return pkt, err
	case <-time.After(timeout):
		return Packet{}, &timeoutError{}
	}
}

// timeoutError implements net.Error for timeout detection in callers.
type timeoutError struct{}

func (e *timeoutError) Error() string   { return "read timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }

// RecvType reads packets until one with the given type is found (within
// timeout). match, when set, must also accept the packet.
func (wc *WSClient) RecvType(msgType string, timeout time.Duration, match ...func(Packet) bool) Packet {
	wc.t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		pkt, err := wc.RecvAny(remaining)
		if err != nil {
			wc.t.Fatalf("WS recv failed while waiting for %q: %v", msgType, err)
		}
		if pkt.Type != msgType {
			continue
		}
		if len(match) > 0 && !match[0](pkt) {
			continue
		}
		return pkt
	}
	wc.t.Fatalf("timed out waiting for message type %q", msgType)
	return Packet{}
}

// Closed reports whether the server closed the connection within timeout.
func (wc *WSClient) Closed(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		_, err := wc.RecvAny(remaining)
		if err == nil {
			continue
		}
		_, isTimeout := err.(*timeoutError)
		return !isTimeout
	}
}

// Close closes the WebSocket connection.
func (wc *WSClient) Close() {
	_ = wc.Conn.Close()
}

// --- SSE client ---

// SSEEvent is one server-sent event.
type SSEEvent struct {
	Name string
	Data string
}

// SSEClient reads a server-sent event stream.
type SSEClient struct {
	events chan SSEEvent
	cancel context.CancelFunc
}

// ConnectSSE opens the event stream with token and waits for the connected event.
func (ts *TestServer) ConnectSSE(t *testing.T, token string) *SSEClient {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/sse?token="+token, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sc := &SSEClient{events: make(chan SSEEvent, 256), cancel: cancel}
	go func() {
		defer resp.Body.Close()
		defer close(sc.events)
		scanner := bufio.NewScanner(resp.Body)
		var ev SSEEvent
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				if ev.Name != "" {
					sc.events <- ev
				}
				ev = SSEEvent{}
			case strings.HasPrefix(line, "event: "):
				ev.Name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				ev.Data = strings.TrimPrefix(line, "data: ")
			}
		}
	}()
	t.Cleanup(sc.Close)
	sc.Next(t, "connected", 5*time.Second)
	return sc
}

// Next waits for the next event named name, skipping others.
func (sc *SSEClient) Next(t *testing.T, name string, timeout time.Duration) SSEEvent {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-sc.events:
			require.True(t, ok, "SSE stream closed while waiting for %q", name)
			if ev.Name == name {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for SSE event %q", name)
			return SSEEvent{}
		}
	}
}

// Close ends the stream.
func (sc *SSEClient) Close() { sc.cancel() }
