package ws

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/session"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/world"
	mw "github.com/DSnider-CodeSample/TCTB-CodeSample/middleware"
	"go.uber.org/zap"
)

// GameHandlers bundles the dependencies of the room WS message handlers.
type GameHandlers struct {
	wm     *world.WorldManager
	logger *zap.Logger
}

// NewGameHandlers creates a new GameHandlers.
func NewGameHandlers(wm *world.WorldManager, logger *zap.Logger) *GameHandlers {
	return &GameHandlers{wm: wm, logger: logger}
}

// RegisterHandlers registers all room handlers on the given Router.
// Observers may only ping and request snapshots.
func (gh *GameHandlers) RegisterHandlers(r *Router) {
	r.On("ping", gh.HandlePing)
	r.On("snapshot", gh.HandleSnapshot)
	r.On("player_state", gameOnly(gh.HandlePlayerState))
	r.On("player_leave", gameOnly(gh.HandlePlayerLeave))
	r.On("footstep", gameOnly(gh.HandleFootstep))
	r.On("sound", gameOnly(gh.HandleSound))
	r.On("activate", gameOnly(gh.HandleActivate))
	r.On("follow", gameOnly(gh.HandleFollow))
	r.On("player_death", gameOnly(gh.HandlePlayerDeath))
}

// gameOnly rejects requests from sessions that cannot drive a room.
func gameOnly(fn HandlerFunc) HandlerFunc {
	return func(ctx context.Context, s *session.ClientSession, raw json.RawMessage) error {
		if s.Role != mw.RoleGame {
			s.SendError("", "forbidden")
			return nil
		}
		return fn(ctx, s, raw)
	}
}

func (gh *GameHandlers) room(s *session.ClientSession, reqType string) (*world.Room, bool) {
	room, err := gh.wm.Get(s.Room)
	if err != nil {
		s.SendError(reqType, err.Error())
		return nil, false
	}
	return room, true
}

func send(s *session.ClientSession, typ string, payload interface{}) {
	pkt, err := session.NewPacket(typ, payload)
	if err != nil {
		return
	}
	s.Send(pkt)
}

// ------------------------------------------------------------------ ping

type pingPayload struct {
	TS int64 `json:"ts"`
}

// HandlePing responds to client heartbeat pings.
func (gh *GameHandlers) HandlePing(_ context.Context, s *session.ClientSession, raw json.RawMessage) error {
	var p pingPayload
	_ = json.Unmarshal(raw, &p)
	s.SendHeartbeatPong(p.TS)
	return nil
}

// ------------------------------------------------------------------ snapshot

// HandleSnapshot replies with the debug snapshots of the room's monsters.
func (gh *GameHandlers) HandleSnapshot(_ context.Context, s *session.ClientSession, _ json.RawMessage) error {
	room, ok := gh.room(s, "snapshot")
	if !ok {
		return nil
	}
	send(s, "snapshot", room.Snapshots())
	return nil
}

// ------------------------------------------------------------------ player telemetry

// HandlePlayerState updates the player's position and movement style.
func (gh *GameHandlers) HandlePlayerState(_ context.Context, s *session.ClientSession, raw json.RawMessage) error {
	var req world.PlayerState
	if err := json.Unmarshal(raw, &req); err != nil {
		return err
	}
	room, ok := gh.room(s, "player_state")
	if !ok {
		return nil
	}
	view, err := req.Apply(room)
	if err != nil {
		s.SendError("player_state", err.Error())
		return nil
	}
	send(s, "player_ack", view)
	return nil
}

// HandlePlayerLeave drops the player telemetry, e.g. during a cutscene.
func (gh *GameHandlers) HandlePlayerLeave(_ context.Context, s *session.ClientSession, _ json.RawMessage) error {
	room, ok := gh.room(s, "player_leave")
	if !ok {
		return nil
	}
	room.ClearPlayer()
	return nil
}

// HandleFootstep reports a footstep. The payload may carry a fresh player
// state that is applied first.
func (gh *GameHandlers) HandleFootstep(_ context.Context, s *session.ClientSession, raw json.RawMessage) error {
	room, ok := gh.room(s, "footstep")
	if !ok {
		return nil
	}
	if len(raw) > 0 && string(raw) != "null" {
		var req world.PlayerState
		if err := json.Unmarshal(raw, &req); err != nil {
			return err
		}
		if _, err := req.Apply(room); err != nil {
			s.SendError("footstep", err.Error())
			return nil
		}
	}
	reactions, heard := room.Footstep()
	if !heard {
		return nil
	}
	send(s, "sound_result", reactions)
	return nil
}

// ------------------------------------------------------------------ sounds

// HandleSound reports a sound to every monster in the room.
func (gh *GameHandlers) HandleSound(_ context.Context, s *session.ClientSession, raw json.RawMessage) error {
	var req world.SoundReport
	if err := json.Unmarshal(raw, &req); err != nil {
		return err
	}
	ev, err := req.Event()
	if err != nil {
		s.SendError("sound", err.Error())
		return nil
	}
	room, ok := gh.room(s, "sound")
	if !ok {
		return nil
	}
	send(s, "sound_result", room.ReportSound(ev))
	return nil
}

// ------------------------------------------------------------------ monster control

type monsterReq struct {
	MonsterID int64 `json:"monster_id"`
}

// HandleActivate wakes one monster, or all of them when monster_id is 0.
func (gh *GameHandlers) HandleActivate(_ context.Context, s *session.ClientSession, raw json.RawMessage) error {
	var req monsterReq
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &req); err != nil {
			return err
		}
	}
	room, ok := gh.room(s, "activate")
	if !ok {
		return nil
	}
	if req.MonsterID == 0 {
		room.ActivateAll()
		return nil
	}
	return gh.monsterErr(s, "activate", room.Activate(req.MonsterID))
}

// HandleFollow sends one monster straight after the player.
func (gh *GameHandlers) HandleFollow(_ context.Context, s *session.ClientSession, raw json.RawMessage) error {
	var req monsterReq
	if err := json.Unmarshal(raw, &req); err != nil {
		return err
	}
	room, ok := gh.room(s, "follow")
	if !ok {
		return nil
	}
	return gh.monsterErr(s, "follow", room.Follow(req.MonsterID))
}

// HandlePlayerDeath resets every monster in the room.
func (gh *GameHandlers) HandlePlayerDeath(_ context.Context, s *session.ClientSession, _ json.RawMessage) error {
	room, ok := gh.room(s, "player_death")
	if !ok {
		return nil
	}
	room.PlayerDeath()
	return nil
}

func (gh *GameHandlers) monsterErr(s *session.ClientSession, reqType string, err error) error {
	if errors.Is(err, world.ErrMonsterNotFound) {
		s.SendError(reqType, err.Error())
		return nil
	}
	return err
}
