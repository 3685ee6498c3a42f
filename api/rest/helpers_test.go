package rest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/audit"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/cache"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/config"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/nav"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/world"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/scheduler"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const hallYAML = `
name: hall
rows:
  - "##########"
  - "#........#"
  - "##########"
runaway_locations: [[150, 150, 0], [850, 150, 0]]
safety_volumes:
  - {name: locker, min: [800, 100, -10], max: [900, 200, 200]}
monsters:
  - {id: 1, position: [150, 150, 0], active: true}
  - {id: 2, position: [850, 150, 0]}
`

func nopLogger() *zap.Logger { return zap.NewNop() }

func hallLayout(t *testing.T) *nav.Layout {
	t.Helper()
	l, err := nav.ParseLayout([]byte(hallYAML))
	require.NoError(t, err)
	return l
}

type testEnv struct {
	wm      *world.WorldManager
	sched   *scheduler.Scheduler
	cache   cache.Cache
	journal *audit.Journal
}

// newTestEnv builds a world with a publisher backed by the local cache and an
// in-memory journal. The hall room is started unless start is false. Ticks
// are an hour apart so tests drive rooms by hand.
func newTestEnv(t *testing.T, start bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	j := audit.New(db, audit.Options{}, nopLogger())
	pub := world.NewPublisher(c, ps, j, world.PublisherOptions{FeedLen: 10, SnapshotTTL: time.Minute}, nopLogger())

	sched := scheduler.New(nopLogger())
	t.Cleanup(sched.Stop)
	cfg := config.Default()
	wm := world.NewWorldManager(sched, pub, world.Options{
		Tick:    time.Hour,
		Monster: cfg.Monster,
		Noise:   cfg.Noise,
	}, nopLogger())
	t.Cleanup(func() {
		wm.StopAll(context.Background())
		j.Stop(context.Background())
	})
	if start {
		_, err := wm.Start(context.Background(), hallLayout(t))
		require.NoError(t, err)
	}
	return &testEnv{wm: wm, sched: sched, cache: c, journal: j}
}

func doRequest(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
