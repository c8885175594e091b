// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/easel-project/easel/session"
)

// liveFeedBuffer is the per-subscriber live event buffer. A subscriber
// this far behind a human hand is not consuming; overflow ends the
// feed rather than silently dropping strokes from the middle of it.
const liveFeedBuffer = 256

var (
	errFeedClosed   = fmt.Errorf("sqlitestore: feed closed")
	errFeedOverflow = fmt.Errorf("sqlitestore: feed fell behind and was dropped")
)

// hub fans committed strokes out to in-process subscribers, keyed by
// session. Publishing happens after the append transaction commits, so
// subscribers never see a stroke that could still roll back.
type hub struct {
	mu          sync.Mutex
	subscribers map[string][]*liveFeed
}

func newHub() *hub {
	return &hub{subscribers: make(map[string][]*liveFeed)}
}

// register adds a feed to a session's subscriber list. The caller must
// register before reading the backlog so no committed stroke falls
// between the backlog query and live delivery.
func (h *hub) register(key string, feed *liveFeed) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[key] = append(h.subscribers[key], feed)
}

// unregister removes a feed from a session's subscriber list.
func (h *hub) unregister(key string, feed *liveFeed) {
	h.mu.Lock()
	defer h.mu.Unlock()

	feeds := h.subscribers[key]
	for i, candidate := range feeds {
		if candidate == feed {
			h.subscribers[key] = append(feeds[:i], feeds[i+1:]...)
			break
		}
	}
	if len(h.subscribers[key]) == 0 {
		delete(h.subscribers, key)
	}
}

// publish delivers an event to every subscriber of a session.
func (h *hub) publish(key string, event session.ChangeEvent) {
	h.mu.Lock()
	feeds := append([]*liveFeed(nil), h.subscribers[key]...)
	h.mu.Unlock()

	for _, feed := range feeds {
		feed.deliver(event)
	}
}

// liveFeed is a session.Feed that serves a backlog snapshot first and
// live hub deliveries after. The watermark makes delivery exactly-once
// from the consumer's view: an event committed during subscription
// setup appears in the backlog AND arrives live, and the second copy
// falls at or below the watermark.
type liveFeed struct {
	backlog   []session.ChangeEvent
	watermark uint64

	live     chan session.ChangeEvent
	overflow chan struct{}
	done     chan struct{}

	closeOnce    sync.Once
	overflowOnce sync.Once
	unregister   func()
}

func newLiveFeed(backlog []session.ChangeEvent, watermark uint64) *liveFeed {
	return &liveFeed{
		backlog:   backlog,
		watermark: watermark,
		live:      make(chan session.ChangeEvent, liveFeedBuffer),
		overflow:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// deliver queues a live event. Never blocks: a full buffer trips the
// overflow signal and the consumer sees the feed end with an error
// instead of a gap.
func (f *liveFeed) deliver(event session.ChangeEvent) {
	select {
	case f.live <- event:
	default:
		f.overflowOnce.Do(func() { close(f.overflow) })
	}
}

// Next returns the next change event: backlog first, then live events
// above the watermark.
func (f *liveFeed) Next(ctx context.Context) (session.ChangeEvent, error) {
	if len(f.backlog) > 0 {
		event := f.backlog[0]
		f.backlog = f.backlog[1:]
		if event.Seq > f.watermark {
			f.watermark = event.Seq
		}
		return event, nil
	}

	for {
		select {
		case <-ctx.Done():
			return session.ChangeEvent{}, ctx.Err()
		case <-f.done:
			return session.ChangeEvent{}, errFeedClosed
		case <-f.overflow:
			return session.ChangeEvent{}, errFeedOverflow
		case event := <-f.live:
			if event.Seq <= f.watermark {
				continue
			}
			f.watermark = event.Seq
			return event, nil
		}
	}
}

// Close unregisters the feed from the hub and wakes any blocked Next.
// Idempotent.
func (f *liveFeed) Close() error {
	f.closeOnce.Do(func() {
		if f.unregister != nil {
			f.unregister()
		}
		close(f.done)
	})
	return nil
}
