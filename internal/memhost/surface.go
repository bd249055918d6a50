package memhost

import (
	"context"
	"errors"
	"sync"

	"pkt.systems/tabula/schema"
)

// Surface is an in-memory page with a linear history.
type Surface struct {
	id        schema.SurfaceID
	host      *Host
	mu        sync.Mutex
	history   []string
	pos       int
	destroyed bool
	bookmarks []schema.Bookmark
}

// ID implements core.Surface.
func (s *Surface) ID() schema.SurfaceID { return s.id }

// Load pushes url onto the history, dropping any forward entries.
func (s *Surface) Load(_ context.Context, url string) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrDestroyed
	}
	if len(s.history) > 0 {
		s.history = s.history[:s.pos+1]
	}
	s.history = append(s.history, url)
	s.pos = len(s.history) - 1
	s.mu.Unlock()
	s.navigated(url, false)
	return nil
}

// LoadPlaceholder loads the new tab page.
func (s *Surface) LoadPlaceholder(ctx context.Context) error {
	return s.Load(ctx, PlaceholderURL)
}

// URL implements core.Surface.
func (s *Surface) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return ""
	}
	return s.history[s.pos]
}

// CanGoBack implements core.Surface.
func (s *Surface) CanGoBack(context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.destroyed && s.pos > 0
}

// CanGoForward implements core.Surface.
func (s *Surface) CanGoForward(context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.destroyed && s.pos < len(s.history)-1
}

// Back implements core.Surface.
func (s *Surface) Back(context.Context) error {
	return s.step(-1)
}

// Forward implements core.Surface.
func (s *Surface) Forward(context.Context) error {
	return s.step(1)
}

// Reload re-announces the current entry.
func (s *Surface) Reload(context.Context) error {
	url := s.URL()
	if url == "" {
		return errors.New("nothing loaded")
	}
	s.navigated(url, false)
	return nil
}

// PushState simulates a same-document navigation.
func (s *Surface) PushState(url string) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.history = append(s.history[:s.pos+1], url)
	s.pos = len(s.history) - 1
	s.mu.Unlock()
	s.navigated(url, true)
}

// SendBookmarks records the list the page would render.
func (s *Surface) SendBookmarks(_ context.Context, list []schema.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrDestroyed
	}
	s.bookmarks = append([]schema.Bookmark(nil), list...)
	return nil
}

// Bookmarks returns the list last pushed into the page.
func (s *Surface) Bookmarks() []schema.Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schema.Bookmark(nil), s.bookmarks...)
}

// Destroy implements core.Surface.
func (s *Surface) Destroy(context.Context) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return nil
	}
	s.destroyed = true
	s.mu.Unlock()
	s.host.forget(s.id)
	return nil
}

// Destroyed reports whether the surface was destroyed.
func (s *Surface) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

func (s *Surface) step(delta int) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrDestroyed
	}
	next := s.pos + delta
	if next < 0 || next >= len(s.history) {
		s.mu.Unlock()
		return errors.New("no history entry")
	}
	s.pos = next
	url := s.history[next]
	s.mu.Unlock()
	s.navigated(url, false)
	return nil
}

// navigated emits the event sequence for a navigation to url.
func (s *Surface) navigated(url string, inPage bool) {
	if inPage {
		s.host.Emit(schema.HostEvent{Kind: schema.HostInPageNavigation, Surface: s.id, URL: url})
		return
	}
	s.host.Emit(schema.HostEvent{Kind: schema.HostNavigationStarted, Surface: s.id, URL: url})
	s.host.Emit(schema.HostEvent{Kind: schema.HostNavigationCommitted, Surface: s.id, URL: url})
	s.host.Emit(schema.HostEvent{Kind: schema.HostTitleChanged, Surface: s.id, Title: titleFor(url)})
	s.host.Emit(schema.HostEvent{Kind: schema.HostLoadFinished, Surface: s.id, URL: url})
}
