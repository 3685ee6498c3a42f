package world

import (
	"context"
	"testing"
	"time"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/audit"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/ai"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/hook"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/model"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/scheduler"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestManager(t *testing.T) (*WorldManager, *scheduler.Scheduler, *audit.Journal, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	j := audit.New(db, audit.Options{FlushInterval: 10 * time.Millisecond}, zap.NewNop())
	t.Cleanup(func() { j.Stop(context.Background()) })
	sched := scheduler.New(zap.NewNop())
	t.Cleanup(sched.Stop)

	pub := NewPublisher(c, ps, j, PublisherOptions{SnapshotTTL: time.Minute}, zap.NewNop())
	wm := NewWorldManager(sched, pub, Options{
		Tick:             10 * time.Millisecond,
		SnapshotInterval: 20 * time.Millisecond,
		Monster:          testMonsterConfig(),
		Noise:            testNoise(),
	}, zap.NewNop())
	return wm, sched, j, db
}

func TestWorldManager_StartSchedulesRoom(t *testing.T) {
	wm, sched, _, _ := newTestManager(t)
	ctx := context.Background()

	room, err := wm.Start(ctx, hallLayout(t))
	require.NoError(t, err)
	assert.NotEmpty(t, room.SessionID)
	assert.Equal(t, 1, wm.ActiveRoomCount())
	assert.ElementsMatch(t, []string{"room:hall:tick", "room:hall:snapshot"}, sched.ListTickers())

	got, err := wm.Get("hall")
	require.NoError(t, err)
	assert.Same(t, room, got)
	assert.Len(t, wm.Rooms(), 1)

	_, err = wm.Start(ctx, hallLayout(t))
	assert.ErrorIs(t, err, ErrRoomExists)
}

func TestWorldManager_DelayedActivation(t *testing.T) {
	wm, _, _, _ := newTestManager(t)
	room, err := wm.Start(context.Background(), hallLayout(t))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		snap, err := room.Snapshot(2)
		return err == nil && snap.Mode == "wander"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorldManager_TicksMoveMonsters(t *testing.T) {
	wm, _, _, _ := newTestManager(t)
	room, err := wm.Start(context.Background(), hallLayout(t))
	require.NoError(t, err)

	room.ReportSound(ai.NewSound(ai.Vec{X: 350, Y: 150}, 1000))
	assert.Eventually(t, func() bool {
		snap, _ := room.Snapshot(1)
		return snap.Position[0] > 150
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorldManager_GetUnknown(t *testing.T) {
	wm, _, _, _ := newTestManager(t)
	_, err := wm.Get("attic")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.ErrorIs(t, wm.Stop(context.Background(), "attic"), ErrRoomNotFound)
}

func TestWorldManager_StopEndsSession(t *testing.T) {
	wm, sched, j, db := newTestManager(t)
	ctx := context.Background()
	room, err := wm.Start(ctx, hallLayout(t))
	require.NoError(t, err)

	require.NoError(t, wm.Stop(ctx, "hall"))
	assert.Equal(t, 0, wm.ActiveRoomCount())
	assert.Empty(t, sched.ListTickers())

	j.Stop(ctx)
	var rs model.RoomSession
	require.NoError(t, db.First(&rs, "id = ?", room.SessionID).Error)
	assert.Equal(t, "hall", rs.RoomID)
	assert.Equal(t, 2, rs.Monsters)
	assert.NotNil(t, rs.EndedAt)
}

func TestWorldManager_StopAll(t *testing.T) {
	wm, sched, _, _ := newTestManager(t)
	_, err := wm.Start(context.Background(), hallLayout(t))
	require.NoError(t, err)

	wm.StopAll(context.Background())
	assert.Equal(t, 0, wm.ActiveRoomCount())
	assert.Empty(t, sched.ListTickers())
	assert.Equal(t, 0, wm.ClientCount())
}

func TestWorldManager_RoomLifecycleHooks(t *testing.T) {
	h := hook.NewRegistry()
	var seen []string
	record := func(_ context.Context, p string, d interface{}) (interface{}, error) {
		seen = append(seen, p+":"+d.(RoomInfo).ID)
		return d, nil
	}
	h.Register(hook.OnRoomStart, 0, "rec", record)
	h.Register(hook.OnRoomStop, 0, "rec", record)

	sched := scheduler.New(zap.NewNop())
	t.Cleanup(sched.Stop)
	wm := NewWorldManager(sched, nil, Options{
		Tick:    time.Hour,
		Monster: testMonsterConfig(),
		Noise:   testNoise(),
		Hooks:   h,
	}, zap.NewNop())

	_, err := wm.Start(context.Background(), hallLayout(t))
	require.NoError(t, err)
	require.NoError(t, wm.Stop(context.Background(), "hall"))
	assert.Equal(t, []string{"on_room_start:hall", "on_room_stop:hall"}, seen)
}
