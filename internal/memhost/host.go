// Package memhost is an in-memory page host. Surfaces keep a navigation
// history and report the same event sequence a real browser would, without
// rendering anything.
package memhost

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"pkt.systems/pslog"
	"pkt.systems/tabula/core"
	"pkt.systems/tabula/schema"
)

// PlaceholderURL is the address of the in-memory new tab page.
const PlaceholderURL = "file:///tabula/newtab.html"

const defaultEventDepth = 256

// ErrDestroyed is returned by operations on a destroyed surface.
var ErrDestroyed = errors.New("surface destroyed")

// Host creates in-memory surfaces.
type Host struct {
	log     pslog.Logger
	events  chan schema.HostEvent
	mu      sync.Mutex
	dropped uint64
	byID    map[schema.SurfaceID]*Surface
	closed  bool
}

// New constructs a host with the given logger.
func New(logger pslog.Logger) *Host {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Host{
		log:    logger,
		events: make(chan schema.HostEvent, defaultEventDepth),
		byID:   make(map[schema.SurfaceID]*Surface),
	}
}

// NewSurface implements core.PageHost.
func (h *Host) NewSurface(context.Context) (core.Surface, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, errors.New("host closed")
	}
	s := &Surface{id: schema.SurfaceID("mem-" + uuid.NewString()), host: h}
	h.byID[s.id] = s
	h.log.Trace("memhost surface created", "surface", s.id)
	return s, nil
}

// Events implements core.PageHost.
func (h *Host) Events() <-chan schema.HostEvent {
	return h.events
}

// Surface returns a live surface by id.
func (h *Host) Surface(id schema.SurfaceID) (*Surface, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.byID[id]
	return s, ok
}

// Surfaces returns the number of live surfaces.
func (h *Host) Surfaces() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.byID)
}

// Close stops event delivery.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.events)
}

// Dropped reports how many events were discarded because nobody drained them.
func (h *Host) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Emit queues an event without blocking. Surfaces call it while the session
// holds its lock, so a full queue drops instead of waiting.
func (h *Host) Emit(event schema.HostEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	select {
	case h.events <- event:
	default:
		h.dropped++
		h.log.Warn("memhost event dropped", "kind", event.Kind, "surface", event.Surface, "dropped", h.dropped)
	}
}

// OpenRequest simulates the page in surface asking to open url in a new target.
func (h *Host) OpenRequest(id schema.SurfaceID, target string, disposition schema.OpenDisposition) {
	h.Emit(schema.HostEvent{Kind: schema.HostOpenRequest, Surface: id, URL: target, Disposition: disposition})
}

// Click simulates a link click inside the page of surface id.
func (h *Host) Click(id schema.SurfaceID, click schema.LinkClick) {
	c := click
	h.Emit(schema.HostEvent{Kind: schema.HostLinkClick, Surface: id, Click: &c})
}

func (h *Host) forget(id schema.SurfaceID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.byID, id)
}

// titleFor derives a page title from a URL the way a simple page would set it.
func titleFor(raw string) string {
	if raw == PlaceholderURL {
		return schema.DefaultTabTitle
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if q := u.Query().Get("q"); q != "" && strings.HasSuffix(u.Path, "/search") {
		return q + " - Search"
	}
	return u.Host
}
