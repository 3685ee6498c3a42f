// Package audit journals monster mode transitions and room sessions to the database.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/ai"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry is one transition to journal.
type Entry struct {
	SessionID  string
	RoomID     string
	Transition ai.Transition
	Snapshot   ai.Snapshot
}

// Options tune the journal's batching.
type Options struct {
	BatchSize     int
	FlushInterval time.Duration
	QueueSize     int
}

// Journal writes transition entries asynchronously in batches.
type Journal struct {
	db     *gorm.DB
	opts   Options
	ch     chan *model.TransitionLog
	stopCh chan struct{}
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a Journal and starts its background worker.
func New(db *gorm.DB, opts Options, logger *zap.Logger) *Journal {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 2 * time.Second
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	j := &Journal{
		db:     db,
		opts:   opts,
		ch:     make(chan *model.TransitionLog, opts.QueueSize),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	j.wg.Add(1)
	go j.worker()
	return j
}

// Record enqueues a transition for async DB write. Entries are dropped when the queue is full.
func (j *Journal) Record(e Entry) {
	snap, _ := json.Marshal(e.Snapshot)
	tr := e.Transition
	record := &model.TransitionLog{
		SessionID: e.SessionID,
		RoomID:    e.RoomID,
		MonsterID: tr.MonsterID,
		FromMode:  tr.From.String(),
		ToMode:    tr.To.String(),
		Reason:    tr.Reason,
		Cue:       tr.Cue,
		PosX:      tr.Position.X,
		PosY:      tr.Position.Y,
		PosZ:      tr.Position.Z,
		Snapshot:  datatypes.JSON(snap),
	}
	select {
	case j.ch <- record:
	default:
		j.logger.Warn("journal channel full, dropping entry",
			zap.String("room_id", e.RoomID),
			zap.Int64("monster_id", tr.MonsterID))
	}
}

// StartSession records the start of a room run.
func (j *Journal) StartSession(ctx context.Context, id, roomID string, monsters int) error {
	rs := &model.RoomSession{ID: id, RoomID: roomID, Monsters: monsters, StartedAt: time.Now()}
	if err := j.db.WithContext(ctx).Create(rs).Error; err != nil {
		return fmt.Errorf("start session %s: %w", id, err)
	}
	return nil
}

// EndSession stamps the end time of a room run.
func (j *Journal) EndSession(ctx context.Context, id string) error {
	now := time.Now()
	err := j.db.WithContext(ctx).Model(&model.RoomSession{}).
		Where("id = ?", id).Update("ended_at", &now).Error
	if err != nil {
		return fmt.Errorf("end session %s: %w", id, err)
	}
	return nil
}

// Recent returns the latest journaled transitions for a room, newest first.
func (j *Journal) Recent(ctx context.Context, roomID string, limit int) ([]model.TransitionLog, error) {
	var out []model.TransitionLog
	err := j.db.WithContext(ctx).Where("room_id = ?", roomID).
		Order("id desc").Limit(limit).Find(&out).Error
	return out, err
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (j *Journal) Stop(_ context.Context) {
	select {
	case <-j.stopCh:
	default:
		close(j.stopCh)
	}
	j.wg.Wait()
}

func (j *Journal) worker() {
	defer j.wg.Done()
	ticker := time.NewTicker(j.opts.FlushInterval)
	defer ticker.Stop()

	batch := make([]*model.TransitionLog, 0, j.opts.BatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := j.db.Create(&batch).Error; err != nil {
			j.logger.Error("journal batch write failed", zap.Error(err), zap.Int("size", len(batch)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-j.ch:
			batch = append(batch, entry)
			if len(batch) >= j.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-j.stopCh:
			// Drain remaining entries.
			for {
				select {
				case entry := <-j.ch:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}
