package world

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/audit"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/cache"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/game/ai"
	"go.uber.org/zap"
)

// MonstersKey is the hash of monster snapshots for a room, keyed by monster ID.
func MonstersKey(room string) string { return "room:" + room + ":monsters" }

// PlayerKey holds the last player telemetry of a room.
func PlayerKey(room string) string { return "room:" + room + ":player" }

// FeedKey is the list of recent transitions of a room, newest first.
func FeedKey(room string) string { return "room:" + room + ":transitions" }

// EventsChannel is the pub/sub channel carrying a room's cue and transition events.
func EventsChannel(room string) string { return "room:" + room + ":events" }

// Publisher fans room events out to the cache, pub/sub and the journal.
// Any of its backends may be nil.
type Publisher struct {
	cache       cache.Cache
	pubsub      cache.PubSub
	journal     *audit.Journal
	feedLen     int
	snapshotTTL time.Duration
	logger      *zap.Logger
}

// PublisherOptions configure a Publisher.
type PublisherOptions struct {
	FeedLen     int           // recent transitions kept per room
	SnapshotTTL time.Duration // expiry of the cached player view
}

// NewPublisher creates a Publisher.
func NewPublisher(c cache.Cache, ps cache.PubSub, j *audit.Journal, opts PublisherOptions, logger *zap.Logger) *Publisher {
	if opts.FeedLen <= 0 {
		opts.FeedLen = 100
	}
	return &Publisher{
		cache:       c,
		pubsub:      ps,
		journal:     j,
		feedLen:     opts.FeedLen,
		snapshotTTL: opts.SnapshotTTL,
		logger:      logger,
	}
}

// Journal returns the transition journal, or nil.
func (p *Publisher) Journal() *audit.Journal {
	if p == nil {
		return nil
	}
	return p.journal
}

func (p *Publisher) publish(ctx context.Context, sessionID string, ev Event) {
	if p == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("marshal room event", zap.Error(err))
		return
	}
	if p.pubsub != nil {
		if err := p.pubsub.Publish(ctx, EventsChannel(ev.Room), string(data)); err != nil {
			p.logger.Warn("publish room event", zap.String("room", ev.Room), zap.Error(err))
		}
	}
	if ev.Type != EventTransition {
		return
	}
	if p.cache != nil {
		key := FeedKey(ev.Room)
		if err := p.cache.LPush(ctx, key, string(data)); err != nil {
			p.logger.Warn("push transition feed", zap.String("room", ev.Room), zap.Error(err))
		} else if err := p.cache.LTrim(ctx, key, 0, int64(p.feedLen-1)); err != nil {
			p.logger.Warn("trim transition feed", zap.String("room", ev.Room), zap.Error(err))
		}
	}
	if p.journal != nil && ev.tr != nil {
		e := audit.Entry{SessionID: sessionID, RoomID: ev.Room, Transition: *ev.tr}
		if ev.snapshot != nil {
			e.Snapshot = *ev.snapshot
		}
		p.journal.Record(e)
	}
}

func (p *Publisher) snapshots(ctx context.Context, room string, snaps []ai.Snapshot, player *PlayerView) {
	if p == nil || p.cache == nil {
		return
	}
	for _, s := range snaps {
		data, _ := json.Marshal(s)
		if err := p.cache.HSet(ctx, MonstersKey(room), strconv.FormatInt(s.MonsterID, 10), string(data)); err != nil {
			p.logger.Warn("cache monster snapshot", zap.String("room", room), zap.Error(err))
			return
		}
	}
	if player == nil {
		if err := p.cache.Del(ctx, PlayerKey(room)); err != nil {
			p.logger.Warn("clear player view", zap.String("room", room), zap.Error(err))
		}
		return
	}
	data, _ := json.Marshal(player)
	if err := p.cache.Set(ctx, PlayerKey(room), string(data), p.snapshotTTL); err != nil {
		p.logger.Warn("cache player view", zap.String("room", room), zap.Error(err))
	}
}

func (p *Publisher) clear(ctx context.Context, room string) {
	if p == nil || p.cache == nil {
		return
	}
	if err := p.cache.Del(ctx, MonstersKey(room), PlayerKey(room)); err != nil {
		p.logger.Warn("clear room views", zap.String("room", room), zap.Error(err))
	}
}
