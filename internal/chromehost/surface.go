package chromehost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"pkt.systems/tabula/schema"
)

// Surface is a Chrome page target.
type Surface struct {
	host   *Host
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	targetID  target.ID
	id        schema.SurfaceID
	mainFrame cdp.FrameID
	url       string
	title     string
	bookmarks []schema.Bookmark
	opens     pendingOpens
	destroyed bool
}

// ID implements core.Surface.
func (s *Surface) ID() schema.SurfaceID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Surface) bind(id target.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targetID = id
	s.id = schema.SurfaceID(id)
	s.mainFrame = cdp.FrameID(id)
}

func (s *Surface) identity() (target.ID, schema.SurfaceID, cdp.FrameID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targetID, s.id, s.mainFrame
}

// Load starts a navigation without waiting for the load event.
func (s *Surface) Load(ctx context.Context, url string) error {
	s.setURL(url)
	return s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, errorText, _, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return err
		}
		if errorText != "" {
			return fmt.Errorf("navigate %s: %s", url, errorText)
		}
		return nil
	}))
}

// LoadPlaceholder loads the new tab page.
func (s *Surface) LoadPlaceholder(ctx context.Context) error {
	return s.Load(ctx, s.host.placeholder)
}

// URL implements core.Surface.
func (s *Surface) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// CanGoBack implements core.Surface.
func (s *Surface) CanGoBack(ctx context.Context) bool {
	cur, entries, err := s.history(ctx)
	return err == nil && cur > 0 && cur < int64(len(entries))
}

// CanGoForward implements core.Surface.
func (s *Surface) CanGoForward(ctx context.Context) bool {
	cur, entries, err := s.history(ctx)
	return err == nil && cur >= 0 && cur < int64(len(entries)-1)
}

// Back implements core.Surface.
func (s *Surface) Back(ctx context.Context) error {
	return s.step(ctx, -1)
}

// Forward implements core.Surface.
func (s *Surface) Forward(ctx context.Context) error {
	return s.step(ctx, 1)
}

// Reload implements core.Surface.
func (s *Surface) Reload(ctx context.Context) error {
	return s.run(ctx, page.Reload())
}

// SendBookmarks dispatches the list to the page and remembers it for the
// next document load.
func (s *Surface) SendBookmarks(ctx context.Context, list []schema.Bookmark) error {
	s.mu.Lock()
	s.bookmarks = append([]schema.Bookmark(nil), list...)
	s.mu.Unlock()
	return s.pushBookmarks(ctx)
}

// Destroy closes the page target.
func (s *Surface) Destroy(context.Context) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return nil
	}
	s.destroyed = true
	id := s.targetID
	s.mu.Unlock()
	s.host.forget(id)
	err := chromedp.Cancel(s.ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

func (s *Surface) run(ctx context.Context, actions ...chromedp.Action) error {
	s.mu.Lock()
	destroyed := s.destroyed
	s.mu.Unlock()
	if destroyed {
		return errors.New("surface destroyed")
	}
	c := chromedp.FromContext(s.ctx)
	if c == nil || c.Target == nil {
		return chromedp.ErrInvalidContext
	}
	exec := cdp.WithExecutor(ctx, c.Target)
	for _, action := range actions {
		if err := action.Do(exec); err != nil {
			return err
		}
	}
	return nil
}

func (s *Surface) history(ctx context.Context) (int64, []*page.NavigationEntry, error) {
	var (
		cur     int64
		entries []*page.NavigationEntry
	)
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cur, entries, err = page.GetNavigationHistory().Do(ctx)
		return err
	}))
	return cur, entries, err
}

func (s *Surface) step(ctx context.Context, delta int64) error {
	cur, entries, err := s.history(ctx)
	if err != nil {
		return err
	}
	next := cur + delta
	if next < 0 || next >= int64(len(entries)) {
		return errors.New("no history entry")
	}
	return s.run(ctx, page.NavigateToHistoryEntry(entries[next].ID))
}

func (s *Surface) pushBookmarks(ctx context.Context) error {
	s.mu.Lock()
	list := s.bookmarks
	s.mu.Unlock()
	if list == nil {
		list = []schema.Bookmark{}
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return s.run(ctx, chromedp.Evaluate(bookmarksScript(payload), nil))
}

func (s *Surface) setURL(url string) {
	s.mu.Lock()
	s.url = url
	s.mu.Unlock()
}

// onEvent runs on the CDP read loop and must not block.
func (s *Surface) onEvent(ev any) {
	_, id, mainFrame := s.identity()
	if id == "" {
		return
	}
	switch e := ev.(type) {
	case *target.EventTargetCreated:
		s.observeTarget(e.TargetInfo, true)
		return
	case *target.EventTargetInfoChanged:
		s.observeTarget(e.TargetInfo, false)
		return
	case *target.EventTargetDestroyed:
		s.mu.Lock()
		s.opens.forget(e.TargetID)
		s.mu.Unlock()
		return
	case *page.EventLoadEventFired:
		go func() {
			if err := s.pushBookmarks(s.ctx); err != nil {
				s.host.log.Trace("chromehost bookmarks replay failed", "surface", id, "err", err)
			}
		}()
	}
	event, ok := translate(id, mainFrame, ev)
	if !ok {
		return
	}
	if event.URL != "" {
		s.setURL(event.URL)
	}
	s.host.emit(event)
}

// observeTarget handles our own title changes and child targets opened by
// this page, which are closed and turned into open requests.
func (s *Surface) observeTarget(info *target.Info, created bool) {
	if info == nil || info.Type != "page" {
		return
	}
	self, id, _ := s.identity()
	if info.TargetID == self {
		s.mu.Lock()
		changed := info.Title != s.title
		s.title = info.Title
		s.mu.Unlock()
		if changed {
			s.host.emit(schema.HostEvent{Kind: schema.HostTitleChanged, Surface: id, Title: info.Title})
		}
		return
	}
	if info.OpenerID != self || s.host.owns(info.TargetID) {
		return
	}
	s.mu.Lock()
	url, ready := s.opens.observe(info.TargetID, info.URL, created)
	s.mu.Unlock()
	if !ready {
		return
	}
	s.host.emit(schema.HostEvent{
		Kind:        schema.HostOpenRequest,
		Surface:     id,
		URL:         url,
		Disposition: schema.OpenForeground,
	})
	go s.host.denyOpen(info.TargetID)
}
