package audit

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/model"
	"github.com/gocarina/gocsv"
	"gorm.io/gorm"
)

const exportPage = 500

// ExportFilter selects journal rows. Zero fields match everything.
type ExportFilter struct {
	RoomID    string
	SessionID string
	MonsterID int64
	Since     time.Time
}

func (f ExportFilter) apply(q *gorm.DB) *gorm.DB {
	if f.RoomID != "" {
		q = q.Where("room_id = ?", f.RoomID)
	}
	if f.SessionID != "" {
		q = q.Where("session_id = ?", f.SessionID)
	}
	if f.MonsterID != 0 {
		q = q.Where("monster_id = ?", f.MonsterID)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since)
	}
	return q
}

// ExportCSV writes the matching transitions to w as CSV, oldest first,
// and returns the number of rows written. The header is written even when
// nothing matches.
func ExportCSV(ctx context.Context, db *gorm.DB, f ExportFilter, w io.Writer) (int, error) {
	var (
		lastID  int64
		written int
	)
	for {
		var page []*model.TransitionLog
		err := f.apply(db.WithContext(ctx).Model(&model.TransitionLog{})).
			Where("id > ?", lastID).Order("id").Limit(exportPage).Find(&page).Error
		if err != nil {
			return written, fmt.Errorf("query journal: %w", err)
		}
		if written == 0 {
			if err := gocsv.Marshal(page, w); err != nil {
				return written, fmt.Errorf("write csv: %w", err)
			}
		} else if len(page) > 0 {
			if err := gocsv.MarshalWithoutHeaders(page, w); err != nil {
				return written, fmt.Errorf("write csv: %w", err)
			}
		}
		written += len(page)
		if len(page) < exportPage {
			return written, nil
		}
		lastID = page[len(page)-1].ID
	}
}
