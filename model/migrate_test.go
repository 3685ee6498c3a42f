package model_test

import (
	"testing"
	"time"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/model"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	rs := &model.RoomSession{ID: "7b0c1f9e-0000-4000-8000-000000000001", RoomID: "basement", Monsters: 2, StartedAt: time.Now()}
	require.NoError(t, db.Create(rs).Error)

	tl := &model.TransitionLog{
		SessionID: rs.ID,
		RoomID:    "basement",
		MonsterID: 1,
		FromMode:  "wander",
		ToMode:    "search",
		Reason:    "sound_heard",
		Cue:       "search-loop",
		Snapshot:  datatypes.JSON(`{"mode":"search"}`),
	}
	require.NoError(t, db.Create(tl).Error)
	assert.Greater(t, tl.ID, int64(0))

	var found model.TransitionLog
	require.NoError(t, db.Where("session_id = ?", rs.ID).First(&found).Error)
	assert.Equal(t, "search", found.ToMode)
	assert.False(t, found.CreatedAt.IsZero())

	now := time.Now()
	require.NoError(t, db.Model(rs).Update("ended_at", &now).Error)
	var s model.RoomSession
	require.NoError(t, db.First(&s, "id = ?", rs.ID).Error)
	require.NotNil(t, s.EndedAt)
}
