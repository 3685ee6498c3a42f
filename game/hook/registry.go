// Package hook lets server extensions observe and filter room activity
// without touching the monster brains.
package hook

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrInterrupt stops a chain. For BeforeSound it also drops the sound.
var ErrInterrupt = errors.New("hook interrupted")

// Room activity points.
const (
	// BeforeSound runs before a sound reaches the brains. Data is an
	// ai.SoundEvent; handlers may return a modified copy.
	BeforeSound = "before_sound"
	// OnTransition and OnCue carry a world.Event after it was dispatched.
	OnTransition = "on_transition"
	OnCue        = "on_cue"
	// OnRoomStart and OnRoomStop carry a world.RoomInfo.
	OnRoomStart = "on_room_start"
	OnRoomStop  = "on_room_stop"
)

// Fn handles one point. Return (data, nil) to continue or
// (data, ErrInterrupt) to stop the chain.
type Fn func(ctx context.Context, point string, data interface{}) (interface{}, error)

type entry struct {
	priority int
	name     string
	fn       Fn
}

// Registry holds hook registrations. A nil *Registry is valid and runs nothing.
type Registry struct {
	mu    sync.RWMutex
	hooks map[string][]*entry
}

func NewRegistry() *Registry {
	return &Registry{hooks: make(map[string][]*entry)}
}

// Register adds fn at point. Lower priorities run first; equal priorities
// keep registration order.
func (r *Registry) Register(point string, priority int, name string, fn Fn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := append(r.hooks[point], &entry{priority: priority, name: name, fn: fn})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority < entries[j].priority
	})
	r.hooks[point] = entries
}

// Unregister removes every hook called name at point.
func (r *Registry) Unregister(point, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[point] = without(r.hooks[point], name)
}

// UnregisterAll removes every hook called name.
func (r *Registry) UnregisterAll(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for point, entries := range r.hooks {
		r.hooks[point] = without(entries, name)
	}
}

func without(entries []*entry, name string) []*entry {
	n := 0
	for _, e := range entries {
		if e.name != name {
			entries[n] = e
			n++
		}
	}
	return entries[:n]
}

// Count returns the number of hooks registered at point.
func (r *Registry) Count(point string) int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks[point])
}

// Trigger runs the hooks at point in priority order, threading data through
// them. Errors other than ErrInterrupt do not stop the chain.
func (r *Registry) Trigger(ctx context.Context, point string, data interface{}) (interface{}, error) {
	if r == nil {
		return data, nil
	}
	r.mu.RLock()
	entries := make([]*entry, len(r.hooks[point]))
	copy(entries, r.hooks[point])
	r.mu.RUnlock()

	for _, e := range entries {
		out, err := e.fn(ctx, point, data)
		if errors.Is(err, ErrInterrupt) {
			return out, err
		}
		if err == nil {
			data = out
		}
	}
	return data, nil
}
