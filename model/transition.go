package model

import (
	"time"

	"gorm.io/datatypes"
)

// TransitionLog is one journaled monster mode change.
type TransitionLog struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id" csv:"id"`
	SessionID string         `gorm:"index:idx_transition_session;size:36;not null" json:"session_id" csv:"session_id"`
	RoomID    string         `gorm:"index:idx_transition_room;size:64;not null" json:"room_id" csv:"room_id"`
	MonsterID int64          `gorm:"index:idx_transition_monster" json:"monster_id" csv:"monster_id"`
	FromMode  string         `gorm:"size:16;not null" json:"from_mode" csv:"from_mode"`
	ToMode    string         `gorm:"size:16;not null" json:"to_mode" csv:"to_mode"`
	Reason    string         `gorm:"size:64" json:"reason" csv:"reason"`
	Cue       string         `gorm:"size:32" json:"cue" csv:"cue"`
	PosX      float64        `json:"pos_x" csv:"pos_x"`
	PosY      float64        `json:"pos_y" csv:"pos_y"`
	PosZ      float64        `json:"pos_z" csv:"pos_z"`
	Snapshot  datatypes.JSON `json:"snapshot" csv:"-"`
	CreatedAt time.Time      `gorm:"index:idx_transition_created;autoCreateTime:milli" json:"created_at" csv:"created_at"`
}

// RoomSession is one run of a level room, from start to stop.
type RoomSession struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	RoomID    string     `gorm:"index;size:64;not null" json:"room_id"`
	Monsters  int        `json:"monsters"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
}
