package httpapi

import (
	"context"
	"sync"
	"time"

	"pkt.systems/tabula/internal/logx"
	"pkt.systems/tabula/schema"
)

// Stream event types besides the display updates.
const (
	StreamSnapshot = "snapshot"
)

// StreamEvent is sent to SSE clients.
type StreamEvent struct {
	Seq       uint64                  `json:"seq"`
	Type      string                  `json:"type"`
	Tabs      *schema.TabsUpdate      `json:"tabs,omitempty"`
	Nav       *schema.NavUpdate       `json:"nav,omitempty"`
	Bookmarks *schema.BookmarksUpdate `json:"bookmarks,omitempty"`
	Snapshot  *SnapshotPayload        `json:"snapshot,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}

// SnapshotPayload seeds client state on connect.
type SnapshotPayload struct {
	Tabs      schema.TabsUpdate `json:"tabs"`
	Nav       schema.NavUpdate  `json:"nav"`
	HasActive bool              `json:"hasActive"`
	Bookmarks []schema.Bookmark `json:"bookmarks"`
}

// Hub numbers display events, keeps a bounded history for replay and
// broadcasts to stream subscribers.
type Hub struct {
	mu          sync.Mutex
	seq         uint64
	history     []StreamEvent
	subs        map[chan StreamEvent]struct{}
	historySize int
	metrics     *Metrics
}

// NewHub constructs a hub with the given history size.
func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = 256
	}
	return &Hub{
		subs:        make(map[chan StreamEvent]struct{}),
		historySize: historySize,
	}
}

// OnTabsUpdate implements core.EventSink.
func (h *Hub) OnTabsUpdate(update schema.TabsUpdate) {
	logx.Ctx(context.Background()).Trace("hub tabs event", "tabs", len(update.Tabs), "current", update.Current)
	h.publish(StreamEvent{
		Type:      string(schema.DisplayTabsUpdate),
		Tabs:      &update,
		Timestamp: time.Now(),
	})
}

// OnNavUpdate implements core.EventSink.
func (h *Hub) OnNavUpdate(update schema.NavUpdate) {
	logx.Ctx(context.Background()).Trace("hub nav event", "url", update.URL, "back", update.CanGoBack, "forward", update.CanGoForward)
	h.publish(StreamEvent{
		Type:      string(schema.DisplayNavUpdate),
		Nav:       &update,
		Timestamp: time.Now(),
	})
}

// OnBookmarksUpdate implements core.EventSink.
func (h *Hub) OnBookmarksUpdate(update schema.BookmarksUpdate) {
	logx.Ctx(context.Background()).Trace("hub bookmarks event", "count", len(update.Bookmarks))
	h.publish(StreamEvent{
		Type:      string(schema.DisplayBookmarksUpdate),
		Bookmarks: &update,
		Timestamp: time.Now(),
	})
}

// Subscribe registers a subscriber. It returns the current sequence so a
// client can tell which history entries it has already seen.
func (h *Hub) Subscribe() (<-chan StreamEvent, func(), uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan StreamEvent, 256)
	h.subs[ch] = struct{}{}
	seq := h.seq
	log := logx.Ctx(context.Background())
	log.Info("hub subscribe", "subs", len(h.subs), "seq", seq)
	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			remaining := len(h.subs)
			h.mu.Unlock()
			log.Info("hub unsubscribe", "subs", remaining)
		})
	}
	return ch, unsub, seq
}

// Replay returns events after the provided seq.
func (h *Hub) Replay(after uint64) []StreamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	events := make([]StreamEvent, 0, len(h.history))
	for _, event := range h.history {
		if event.Seq > after {
			events = append(events, event)
		}
	}
	logx.Ctx(context.Background()).Debug("hub replay", "after", after, "count", len(events))
	return events
}

// Seq returns the sequence number of the newest event.
func (h *Hub) Seq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}

func (h *Hub) publish(event StreamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	event.Seq = h.seq
	h.history = append(h.history, event)
	if len(h.history) > h.historySize {
		h.history = h.history[len(h.history)-h.historySize:]
	}
	dropped := 0
	for sub := range h.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	h.metrics.eventPublished(event.Type, dropped)
	if dropped > 0 {
		logx.Ctx(context.Background()).Warn("hub event dropped", "type", event.Type, "dropped", dropped)
	}
}

func (h *Hub) setMetrics(m *Metrics) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.metrics = m
}
