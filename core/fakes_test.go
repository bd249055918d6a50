package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"pkt.systems/tabula/schema"
)

const fakePlaceholderURL = "file:///tabula/newtab.html"

type fakeSurface struct {
	id        schema.SurfaceID
	history   []string
	pos       int
	destroyed bool
	reloads   int
	pushed    [][]schema.Bookmark
}

func (s *fakeSurface) ID() schema.SurfaceID { return s.id }

func (s *fakeSurface) Load(_ context.Context, url string) error {
	if s.destroyed {
		return errors.New("surface destroyed")
	}
	if len(s.history) > 0 {
		s.history = s.history[:s.pos+1]
	}
	s.history = append(s.history, url)
	s.pos = len(s.history) - 1
	return nil
}

func (s *fakeSurface) LoadPlaceholder(ctx context.Context) error {
	return s.Load(ctx, fakePlaceholderURL)
}

func (s *fakeSurface) URL() string {
	if len(s.history) == 0 {
		return ""
	}
	return s.history[s.pos]
}

func (s *fakeSurface) CanGoBack(context.Context) bool { return s.pos > 0 }

func (s *fakeSurface) CanGoForward(context.Context) bool { return s.pos < len(s.history)-1 }

func (s *fakeSurface) Back(context.Context) error {
	if s.pos == 0 {
		return errors.New("no back entry")
	}
	s.pos--
	return nil
}

func (s *fakeSurface) Forward(context.Context) error {
	if s.pos >= len(s.history)-1 {
		return errors.New("no forward entry")
	}
	s.pos++
	return nil
}

func (s *fakeSurface) Reload(context.Context) error {
	s.reloads++
	return nil
}

func (s *fakeSurface) SendBookmarks(_ context.Context, list []schema.Bookmark) error {
	s.pushed = append(s.pushed, list)
	return nil
}

func (s *fakeSurface) Destroy(context.Context) error {
	s.destroyed = true
	return nil
}

type fakeHost struct {
	surfaces []*fakeSurface
	events   chan schema.HostEvent
	err      error
}

func newFakeHost() *fakeHost {
	return &fakeHost{events: make(chan schema.HostEvent, 16)}
}

func (h *fakeHost) NewSurface(context.Context) (Surface, error) {
	if h.err != nil {
		return nil, h.err
	}
	s := &fakeSurface{id: schema.SurfaceID(fmt.Sprintf("s%d", len(h.surfaces)+1))}
	h.surfaces = append(h.surfaces, s)
	return s, nil
}

func (h *fakeHost) Events() <-chan schema.HostEvent { return h.events }

type mountCall struct {
	surface schema.SurfaceID
	bounds  schema.Bounds
}

type fakeWindow struct {
	width, height int
	mounted       Surface
	mounts        []mountCall
	unmounts      int
	violations    int
	failMount     map[schema.SurfaceID]bool
}

func (w *fakeWindow) ContentSize() (int, int) { return w.width, w.height }

func (w *fakeWindow) Mount(_ context.Context, surface Surface, bounds schema.Bounds) error {
	if w.failMount[surface.ID()] {
		return errors.New("mount failed")
	}
	if w.mounted != nil && w.mounted != surface {
		w.violations++
	}
	w.mounted = surface
	w.mounts = append(w.mounts, mountCall{surface: surface.ID(), bounds: bounds})
	return nil
}

func (w *fakeWindow) Unmount(_ context.Context, surface Surface) error {
	if w.mounted == surface {
		w.mounted = nil
	}
	w.unmounts++
	return nil
}

type recordingSink struct {
	tabs      []schema.TabsUpdate
	navs      []schema.NavUpdate
	bookmarks []schema.BookmarksUpdate
}

func (r *recordingSink) OnTabsUpdate(update schema.TabsUpdate) { r.tabs = append(r.tabs, update) }

func (r *recordingSink) OnNavUpdate(update schema.NavUpdate) { r.navs = append(r.navs, update) }

func (r *recordingSink) OnBookmarksUpdate(update schema.BookmarksUpdate) {
	r.bookmarks = append(r.bookmarks, update)
}

func (r *recordingSink) reset() {
	r.tabs, r.navs, r.bookmarks = nil, nil, nil
}

func (r *recordingSink) lastTabs(t *testing.T) schema.TabsUpdate {
	t.Helper()
	if len(r.tabs) == 0 {
		t.Fatalf("expected a tabs update")
	}
	return r.tabs[len(r.tabs)-1]
}

func (r *recordingSink) lastNav(t *testing.T) schema.NavUpdate {
	t.Helper()
	if len(r.navs) == 0 {
		t.Fatalf("expected a nav update")
	}
	return r.navs[len(r.navs)-1]
}

type memStore struct {
	list    []schema.Bookmark
	present bool
	loadErr error
	saveErr error
	saves   int
}

func (m *memStore) Load() ([]schema.Bookmark, bool, error) {
	if m.loadErr != nil {
		return nil, false, m.loadErr
	}
	return m.list, m.present, nil
}

func (m *memStore) Save(list []schema.Bookmark) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.list = list
	m.present = true
	return nil
}

type harness struct {
	svc    *service
	host   *fakeHost
	window *fakeWindow
	sink   *recordingSink
	store  *memStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithStore(t, &memStore{})
}

func newHarnessWithStore(t *testing.T, store *memStore) *harness {
	t.Helper()
	h := &harness{
		host:   newFakeHost(),
		window: &fakeWindow{width: 1200, height: 800},
		sink:   &recordingSink{},
		store:  store,
	}
	svc, err := NewService(schema.ServiceConfig{}, ServiceDeps{
		Host:          h.host,
		Window:        h.window,
		EventSink:     h.sink,
		BookmarkStore: h.store,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	h.svc = svc.(*service)
	return h
}

func (h *harness) newTab(t *testing.T, url string, activate bool) int {
	t.Helper()
	resp, err := h.svc.NewTab(context.Background(), schema.NewTabRequest{URL: url, Activate: &activate})
	if err != nil {
		t.Fatalf("new tab %q: %v", url, err)
	}
	return resp.Index
}

func (h *harness) list(t *testing.T) schema.ListTabsResponse {
	t.Helper()
	resp, err := h.svc.ListTabs(context.Background(), schema.ListTabsRequest{})
	if err != nil {
		t.Fatalf("list tabs: %v", err)
	}
	return resp
}

// checkInvariants asserts the active index and mounted surface agree.
func (h *harness) checkInvariants(t *testing.T) {
	t.Helper()
	reg := h.svc.tabs
	if reg.len() == 0 {
		if reg.active != -1 {
			t.Fatalf("empty registry has active %d", reg.active)
		}
		if h.window.mounted != nil {
			t.Fatalf("empty registry has mounted surface %s", h.window.mounted.ID())
		}
		return
	}
	if !reg.valid(reg.active) {
		t.Fatalf("invalid active %d for %d tabs", reg.active, reg.len())
	}
	if h.window.mounted != reg.current().surface {
		t.Fatalf("mounted surface is not the active tab's surface")
	}
	if h.window.violations != 0 {
		t.Fatalf("window had %d overlapping mounts", h.window.violations)
	}
}
