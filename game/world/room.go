package world

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/config"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/ai"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/hook"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/nav"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/session"
	"go.uber.org/zap"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrMonsterNotFound = errors.New("monster not found")
	ErrRoomExists      = errors.New("room already running")
)

// Client receives a room's pushes.
type Client interface {
	ID() string
	SendRaw(data []byte)
	IsClosed() bool
}

// RoomInfo summarizes a running room.
type RoomInfo struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	Monsters      int       `json:"monsters"`
	Clients       int       `json:"clients"`
	PlayerPresent bool      `json:"player_present"`
	StartedAt     time.Time `json:"started_at"`
}

// Room simulates one level: its monsters, the player telemetry and the
// clients watching it. All brain calls happen under mu; the events they
// raise are dispatched after it is released.
type Room struct {
	ID        string
	SessionID string
	StartedAt time.Time

	layout    *nav.Layout
	grid      *nav.Grid
	monsters  map[int64]*MonsterRuntime
	order     []int64
	player    *PlayerRuntime
	footsteps *Footsteps
	clients   map[string]Client
	pending   []Event

	pub    *Publisher
	hooks  *hook.Registry
	mu     sync.Mutex
	logger *zap.Logger
}

// RoomOption customizes a room at construction.
type RoomOption func(*Room)

// WithHooks runs the registry's hooks for the room's sounds and events.
func WithHooks(h *hook.Registry) RoomOption {
	return func(r *Room) { r.hooks = h }
}

// NewRoom builds a room for layout with monsters resolved from mc. Spawns
// flagged active are woken immediately.
func NewRoom(sessionID string, layout *nav.Layout, mc config.MonsterConfig, noise config.NoiseConfig, pub *Publisher, logger *zap.Logger, opts ...RoomOption) *Room {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Room{
		ID:        layout.Name,
		SessionID: sessionID,
		StartedAt: time.Now(),
		layout:    layout,
		grid:      layout.Grid(),
		monsters:  make(map[int64]*MonsterRuntime, len(layout.Monsters)),
		footsteps: NewFootsteps(noise),
		clients:   make(map[string]Client),
		pub:       pub,
		logger:    logger.With(zap.String("room", layout.Name)),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, spawn := range layout.Monsters {
		m := newMonster(r, spawn, mc.Resolve(spawn.Tunables), r.logger)
		r.monsters[m.ID] = m
		r.order = append(r.order, m.ID)
	}
	sort.Slice(r.order, func(i, j int) bool { return r.order[i] < r.order[j] })

	r.do(func() {
		for _, spawn := range layout.Monsters {
			if spawn.Active {
				r.monsters[spawn.ID].brain.Activate()
			}
		}
	})
	return r
}

// Layout returns the room's level layout.
func (r *Room) Layout() *nav.Layout { return r.layout }

// do runs fn under the room lock, then dispatches the events it raised.
func (r *Room) do(fn func()) {
	r.mu.Lock()
	fn()
	events := r.pending
	r.pending = nil
	for i := range events {
		if events[i].Type != EventTransition {
			continue
		}
		if m, ok := r.monsters[events[i].MonsterID]; ok {
			snap := m.brain.Snapshot()
			events[i].snapshot = &snap
		}
	}
	clients := r.clientList()
	r.mu.Unlock()

	ctx := context.Background()
	for _, ev := range events {
		broadcast(clients, ev.Type, ev)
		r.pub.publish(ctx, r.SessionID, ev)
		point := hook.OnCue
		if ev.Type == EventTransition {
			point = hook.OnTransition
		}
		if _, err := r.hooks.Trigger(ctx, point, ev); err != nil {
			r.logger.Debug("event hook interrupted", zap.String("point", point))
		}
	}
}

// queue records an event raised by a brain. Called with mu held.
func (r *Room) queue(ev Event) { r.pending = append(r.pending, ev) }

// playerInfo is the brain's player telemetry. Called with mu held.
func (r *Room) playerInfo() (ai.PlayerInfo, bool) {
	if r.player == nil {
		return ai.PlayerInfo{}, false
	}
	return ai.PlayerInfo{Position: r.player.Position, Protected: r.player.Protected}, true
}

// Tick advances every monster by dt and pushes their positions to clients.
func (r *Room) Tick(dt time.Duration) {
	var syncs []MonsterSync
	var clients []Client
	r.do(func() {
		tc := ai.TickContext{Delta: dt, Nav: r.grid}
		if p, ok := r.playerInfo(); ok {
			tc.Player = &p
		}
		syncs = make([]MonsterSync, 0, len(r.order))
		for _, id := range r.order {
			m := r.monsters[id]
			m.tick(tc)
			syncs = append(syncs, m.sync())
		}
		r.dropClosedClients()
		clients = r.clientList()
	})
	broadcast(clients, EventMonsterSync, syncs)
}

// ReportSound reports a sound to every monster in the room. A BeforeSound
// hook may rewrite the sound or drop it, in which case no monster reacts.
func (r *Room) ReportSound(ev ai.SoundEvent) []SoundReaction {
	out, _ := r.report(ev)
	return out
}

func (r *Room) report(ev ai.SoundEvent) ([]SoundReaction, bool) {
	data, err := r.hooks.Trigger(context.Background(), hook.BeforeSound, ev)
	if errors.Is(err, hook.ErrInterrupt) {
		r.logger.Debug("sound dropped by hook", zap.Float64("radius", ev.HearableRadius))
		return []SoundReaction{}, false
	}
	if filtered, ok := data.(ai.SoundEvent); ok {
		ev = filtered
	}
	var out []SoundReaction
	r.do(func() {
		out = make([]SoundReaction, 0, len(r.order))
		for _, id := range r.order {
			reaction := r.monsters[id].brain.ReportSound(ev)
			out = append(out, SoundReaction{MonsterID: id, Reaction: reaction.String()})
		}
	})
	return out, true
}

// Footstep reports a footstep at the player's position. It returns false
// when there is no player, the step was debounced or a hook dropped it.
func (r *Room) Footstep() ([]SoundReaction, bool) {
	var ev ai.SoundEvent
	ok := false
	r.mu.Lock()
	if r.player != nil {
		ev, ok = r.footsteps.Step(r.player.Position, r.player.Style)
	}
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	return r.report(ev)
}

// SetPlayer updates the player telemetry. Protection is derived from the
// layout's safety volumes.
func (r *Room) SetPlayer(pos ai.Vec, style MovementStyle) PlayerView {
	var view PlayerView
	r.do(func() {
		r.player = &PlayerRuntime{
			Position:  pos,
			Style:     style,
			Protected: r.layout.InSafetyVolume(pos),
			UpdatedAt: time.Now(),
		}
		view = r.player.view()
	})
	return view
}

// ClearPlayer drops the player telemetry.
func (r *Room) ClearPlayer() {
	r.do(func() { r.player = nil })
}

// Player returns the player view, or false when no player is present.
func (r *Room) Player() (PlayerView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.player == nil {
		return PlayerView{}, false
	}
	return r.player.view(), true
}

// Activate wakes one monster. An already active monster follows the player.
func (r *Room) Activate(id int64) error {
	return r.withMonster(id, func(m *MonsterRuntime) { m.brain.Activate() })
}

// ActivateAll wakes every monster.
func (r *Room) ActivateAll() {
	r.do(func() {
		for _, id := range r.order {
			r.monsters[id].brain.Activate()
		}
	})
}

// Follow sends one monster straight after the player.
func (r *Room) Follow(id int64) error {
	return r.withMonster(id, func(m *MonsterRuntime) { m.brain.SetFollowPlayer() })
}

// PlayerDeath resets every monster.
func (r *Room) PlayerDeath() {
	r.do(func() {
		for _, id := range r.order {
			m := r.monsters[id]
			m.brain.OnPlayerDeath()
			m.mover.Stop()
		}
	})
}

func (r *Room) withMonster(id int64, fn func(m *MonsterRuntime)) error {
	var err error
	r.do(func() {
		m, ok := r.monsters[id]
		if !ok {
			err = ErrMonsterNotFound
			return
		}
		fn(m)
	})
	return err
}

// Snapshots returns the debug snapshots of all monsters ordered by ID.
func (r *Room) Snapshots() []ai.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ai.Snapshot, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.monsters[id].brain.Snapshot())
	}
	return out
}

// Snapshot returns one monster's debug snapshot.
func (r *Room) Snapshot(id int64) (ai.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.monsters[id]
	if !ok {
		return ai.Snapshot{}, ErrMonsterNotFound
	}
	return m.brain.Snapshot(), nil
}

// PublishSnapshots writes the monster snapshots and player view to the cache.
func (r *Room) PublishSnapshots(ctx context.Context) {
	snaps := r.Snapshots()
	var view *PlayerView
	if p, ok := r.Player(); ok {
		view = &p
	}
	r.pub.snapshots(ctx, r.ID, snaps, view)
}

// Info summarizes the room.
func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomInfo{
		ID:            r.ID,
		SessionID:     r.SessionID,
		Monsters:      len(r.monsters),
		Clients:       len(r.clients),
		PlayerPresent: r.player != nil,
		StartedAt:     r.StartedAt,
	}
}

// ---- Clients ----

// AddClient subscribes c to the room's pushes, replacing a client with the same ID.
func (r *Room) AddClient(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID()] = c
}

// RemoveClient unsubscribes c if it is still the registered client for its ID.
func (r *Room) RemoveClient(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.clients[c.ID()]; ok && cur == c {
		delete(r.clients, c.ID())
	}
}

// ClientCount returns the number of subscribed clients.
func (r *Room) ClientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// dropClosedClients is a safety net; sessions normally leave on disconnect.
func (r *Room) dropClosedClients() {
	for id, c := range r.clients {
		if c.IsClosed() {
			delete(r.clients, id)
			r.logger.Info("removed stale client from room", zap.String("client_id", id))
		}
	}
}

func (r *Room) clientList() []Client {
	out := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

func broadcast(clients []Client, typ string, payload interface{}) {
	if len(clients) == 0 {
		return
	}
	pkt, err := session.NewPacket(typ, payload)
	if err != nil {
		return
	}
	data, err := json.Marshal(pkt)
	if err != nil {
		return
	}
	for _, c := range clients {
		c.SendRaw(data)
	}
}
