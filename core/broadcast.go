package core

import (
	"context"

	"pkt.systems/tabula/schema"
)

func (s *service) tabsSnapshotLocked() schema.TabsUpdate {
	list := make([]schema.TabSnapshot, 0, s.tabs.len())
	for i, t := range s.tabs.tabs {
		list = append(list, t.Snapshot(i, i == s.tabs.active))
	}
	return schema.TabsUpdate{Tabs: list, Current: s.tabs.active}
}

// navSnapshotLocked reports the active tab's navigation state. ok is false
// when no tab is active.
func (s *service) navSnapshotLocked(ctx context.Context) (schema.NavUpdate, bool) {
	current := s.tabs.current()
	if current == nil {
		return schema.NavUpdate{}, false
	}
	surface := current.surface
	url := surface.URL()
	if current.isNewTab && schema.IsPlaceholderURL(url) {
		url = ""
	}
	return schema.NavUpdate{
		URL:          url,
		CanGoBack:    surface.CanGoBack(ctx),
		CanGoForward: surface.CanGoForward(ctx),
	}, true
}

func (s *service) emitTabsLocked() {
	if s.sink == nil {
		return
	}
	s.sink.OnTabsUpdate(s.tabsSnapshotLocked())
}

func (s *service) emitNavLocked(ctx context.Context) {
	if s.sink == nil {
		return
	}
	nav, ok := s.navSnapshotLocked(ctx)
	if !ok {
		return
	}
	s.sink.OnNavUpdate(nav)
}

// broadcastBookmarksLocked pushes the list to the display and every surface.
func (s *service) broadcastBookmarksLocked(ctx context.Context) {
	if s.sink != nil {
		s.sink.OnBookmarksUpdate(schema.BookmarksUpdate{Bookmarks: cloneBookmarks(s.bookmarks)})
	}
	for _, t := range s.tabs.tabs {
		if err := t.surface.SendBookmarks(ctx, cloneBookmarks(s.bookmarks)); err != nil {
			s.logger.Trace("service bookmarks push failed", "surface", t.surface.ID(), "err", err)
		}
	}
}
