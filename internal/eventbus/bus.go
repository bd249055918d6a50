// Package eventbus fans display updates out to in-process subscribers.
package eventbus

import (
	"context"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/tabula/schema"
)

// Event is one display update. Only the payload matching Type is set.
type Event struct {
	Type      schema.DisplayEventType
	Tabs      schema.TabsUpdate
	Nav       schema.NavUpdate
	Bookmarks schema.BookmarksUpdate
}

// Payload returns the value carried by the event.
func (e Event) Payload() any {
	switch e.Type {
	case schema.DisplayTabsUpdate:
		return e.Tabs
	case schema.DisplayNavUpdate:
		return e.Nav
	case schema.DisplayBookmarksUpdate:
		return e.Bookmarks
	default:
		return nil
	}
}

// Bus fanouts events to subscribers. Publishing never blocks; a full
// subscriber misses the event.
type Bus struct {
	mu    sync.Mutex
	subs  map[chan Event]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[chan Event]struct{}),
		log:   logger,
		depth: 256,
	}
}

// Subscribe registers a subscriber and returns a channel + cancel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan Event, b.depth)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	count := len(b.subs)
	b.mu.Unlock()
	b.log.Debug("eventbus subscribe", "subs", count)
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
			b.log.Debug("eventbus unsubscribe")
		})
	}
}

// OnTabsUpdate publishes a tabs update.
func (b *Bus) OnTabsUpdate(update schema.TabsUpdate) {
	b.publish(Event{Type: schema.DisplayTabsUpdate, Tabs: update})
}

// OnNavUpdate publishes a navigation update.
func (b *Bus) OnNavUpdate(update schema.NavUpdate) {
	b.publish(Event{Type: schema.DisplayNavUpdate, Nav: update})
}

// OnBookmarksUpdate publishes a bookmark list update.
func (b *Bus) OnBookmarksUpdate(update schema.BookmarksUpdate) {
	b.publish(Event{Type: schema.DisplayBookmarksUpdate, Bookmarks: update})
}

func (b *Bus) publish(event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.subs) == 0 {
		return
	}
	dropped := 0
	for sub := range b.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		b.log.Trace("eventbus dropped", "type", event.Type, "count", dropped)
	}
}
