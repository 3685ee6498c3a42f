package world

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/config"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/hook"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/nav"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/scheduler"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configure the rooms a WorldManager starts.
type Options struct {
	Tick             time.Duration
	SnapshotInterval time.Duration
	Monster          config.MonsterConfig
	Noise            config.NoiseConfig
	Hooks            *hook.Registry // optional
}

// WorldManager manages all running rooms and their scheduler tasks.
type WorldManager struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	sched  *scheduler.Scheduler
	pub    *Publisher
	opts   Options
	logger *zap.Logger
}

// NewWorldManager creates a new WorldManager.
func NewWorldManager(sched *scheduler.Scheduler, pub *Publisher, opts Options, logger *zap.Logger) *WorldManager {
	if opts.Tick <= 0 {
		opts.Tick = 50 * time.Millisecond // 20 TPS
	}
	return &WorldManager{
		rooms:  make(map[string]*Room),
		sched:  sched,
		pub:    pub,
		opts:   opts,
		logger: logger,
	}
}

func tickTask(room string) string     { return "room:" + room + ":tick" }
func snapshotTask(room string) string { return "room:" + room + ":snapshot" }
func wakeTask(room string, id int64) string {
	return "room:" + room + ":wake:" + strconv.FormatInt(id, 10)
}

// Start creates a room for layout and schedules its tick loop, snapshot
// publishing and delayed monster activations.
func (wm *WorldManager) Start(ctx context.Context, layout *nav.Layout) (*Room, error) {
	wm.mu.Lock()
	if _, ok := wm.rooms[layout.Name]; ok {
		wm.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrRoomExists, layout.Name)
	}
	room := NewRoom(uuid.NewString(), layout, wm.opts.Monster, wm.opts.Noise, wm.pub, wm.logger, WithHooks(wm.opts.Hooks))
	wm.rooms[room.ID] = room
	wm.mu.Unlock()

	if j := wm.pub.Journal(); j != nil {
		if err := j.StartSession(ctx, room.SessionID, room.ID, len(layout.Monsters)); err != nil {
			wm.logger.Warn("journal room session", zap.String("room", room.ID), zap.Error(err))
		}
	}

	wm.sched.AddTicker(tickTask(room.ID), wm.opts.Tick, room.Tick)
	if wm.opts.SnapshotInterval > 0 {
		wm.sched.AddTicker(snapshotTask(room.ID), wm.opts.SnapshotInterval, func(time.Duration) {
			room.PublishSnapshots(context.Background())
		})
	}
	for _, spawn := range layout.Monsters {
		if spawn.Active || spawn.ActivateAfter <= 0 {
			continue
		}
		id := spawn.ID
		delay := time.Duration(spawn.ActivateAfter * float64(time.Second))
		wm.sched.AddDelay(wakeTask(room.ID, id), delay, func() {
			if err := room.Activate(id); err != nil {
				wm.logger.Warn("delayed activation", zap.Int64("monster_id", id), zap.Error(err))
			}
		})
	}

	if _, err := wm.opts.Hooks.Trigger(ctx, hook.OnRoomStart, room.Info()); err != nil {
		wm.logger.Debug("room start hook interrupted", zap.String("room", room.ID))
	}
	wm.logger.Info("room started",
		zap.String("room", room.ID),
		zap.String("session_id", room.SessionID),
		zap.Int("monsters", len(layout.Monsters)))
	return room, nil
}

// Get returns the room with the given ID.
func (wm *WorldManager) Get(id string) (*Room, error) {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	room, ok := wm.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}
	return room, nil
}

// Rooms returns all running rooms ordered by ID.
func (wm *WorldManager) Rooms() []*Room {
	wm.mu.RLock()
	out := make([]*Room, 0, len(wm.rooms))
	for _, r := range wm.rooms {
		out = append(out, r)
	}
	wm.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ActiveRoomCount returns the number of running rooms.
func (wm *WorldManager) ActiveRoomCount() int {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return len(wm.rooms)
}

// ClientCount returns the number of clients across all rooms.
func (wm *WorldManager) ClientCount() int {
	n := 0
	for _, r := range wm.Rooms() {
		n += r.ClientCount()
	}
	return n
}

// Stop unschedules a room, closes its journal session and clears its cached views.
func (wm *WorldManager) Stop(ctx context.Context, id string) error {
	wm.mu.Lock()
	room, ok := wm.rooms[id]
	if ok {
		delete(wm.rooms, id)
	}
	wm.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}
	wm.stopRoom(ctx, room)
	return nil
}

// StopAll stops every room (used at server shutdown).
func (wm *WorldManager) StopAll(ctx context.Context) {
	wm.mu.Lock()
	rooms := make([]*Room, 0, len(wm.rooms))
	for _, r := range wm.rooms {
		rooms = append(rooms, r)
	}
	wm.rooms = make(map[string]*Room)
	wm.mu.Unlock()
	for _, r := range rooms {
		wm.stopRoom(ctx, r)
	}
}

func (wm *WorldManager) stopRoom(ctx context.Context, room *Room) {
	wm.sched.Remove(tickTask(room.ID))
	wm.sched.Remove(snapshotTask(room.ID))
	for _, spawn := range room.Layout().Monsters {
		wm.sched.Remove(wakeTask(room.ID, spawn.ID))
	}
	if j := wm.pub.Journal(); j != nil {
		if err := j.EndSession(ctx, room.SessionID); err != nil {
			wm.logger.Warn("end room session", zap.String("room", room.ID), zap.Error(err))
		}
	}
	wm.pub.clear(ctx, room.ID)
	if _, err := wm.opts.Hooks.Trigger(ctx, hook.OnRoomStop, room.Info()); err != nil {
		wm.logger.Debug("room stop hook interrupted", zap.String("room", room.ID))
	}
	wm.logger.Info("room stopped", zap.String("room", room.ID))
}
