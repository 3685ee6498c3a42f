package local

import (
	"context"
	"sync"
)

// LocalMessage is an in-process pub/sub message.
type LocalMessage struct {
	Channel string
	Payload string
}

// subscription is one Subscribe call. It may listen on several channels but
// owns a single outbound queue.
type subscription struct {
	ch     chan *LocalMessage
	closed bool // guarded by LocalPubSub.mu
}

// LocalPubSub is an in-process fan-out pub/sub implementation. Sends never
// block: a full subscriber queue drops the message.
type LocalPubSub struct {
	mu          sync.RWMutex
	subscribers map[string][]*subscription
	bufSize     int
}

// NewPubSub creates a new LocalPubSub with the given per-subscriber buffer size.
func NewPubSub(bufSize int) *LocalPubSub {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &LocalPubSub{
		subscribers: make(map[string][]*subscription),
		bufSize:     bufSize,
	}
}

// Publish sends a message to all subscribers of the given channel. The read
// lock is held across the sends so a concurrent cancel cannot close a queue
// mid-send.
func (ps *LocalPubSub) Publish(_ context.Context, channel, message string) error {
	msg := &LocalMessage{Channel: channel, Payload: message}
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	for _, s := range ps.subscribers[channel] {
		if s.closed {
			continue
		}
		select {
		case s.ch <- msg:
		default:
		}
	}
	return nil
}

// Subscribers returns the number of live subscriptions on channel.
func (ps *LocalPubSub) Subscribers(channel string) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscribers[channel])
}

// Subscribe returns a channel of messages for the given channels, and a cancel
// function. Cancel is idempotent and closes the returned channel.
func (ps *LocalPubSub) Subscribe(_ context.Context, channels ...string) (<-chan *LocalMessage, func(), error) {
	sub := &subscription{ch: make(chan *LocalMessage, ps.bufSize)}

	ps.mu.Lock()
	for _, c := range channels {
		ps.subscribers[c] = append(ps.subscribers[c], sub)
	}
	ps.mu.Unlock()

	cancel := func() {
		ps.mu.Lock()
		defer ps.mu.Unlock()
		if sub.closed {
			return
		}
		sub.closed = true
		for _, c := range channels {
			ps.subscribers[c] = remove(ps.subscribers[c], sub)
			if len(ps.subscribers[c]) == 0 {
				delete(ps.subscribers, c)
			}
		}
		close(sub.ch)
	}
	return sub.ch, cancel, nil
}

// remove returns a fresh slice without sub; list itself is left untouched.
func remove(list []*subscription, sub *subscription) []*subscription {
	out := make([]*subscription, 0, len(list))
	for _, s := range list {
		if s != sub {
			out = append(out, s)
		}
	}
	return out
}
