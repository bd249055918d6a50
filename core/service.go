package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/tabula/internal/logx"
	"pkt.systems/tabula/schema"
)

// service owns the tab session. Every command and host event runs under mu,
// so handlers never interleave.
type service struct {
	cfg       schema.ServiceConfig
	host      PageHost
	view      *viewController
	sink      EventSink
	store     BookmarkStore
	logger    pslog.Logger
	mu        sync.Mutex
	tabs      *registry
	bookmarks []schema.Bookmark
	started   bool
	closed    bool
}

// NewService constructs the session and loads the bookmark list.
func NewService(cfg schema.ServiceConfig, deps ServiceDeps) (Service, error) {
	normalized, err := schema.NormalizeServiceConfig(cfg)
	if err != nil {
		return nil, err
	}
	cfg = normalized
	if deps.Host == nil {
		return nil, errors.New("page host is required")
	}
	if deps.Window == nil {
		return nil, errors.New("window is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	s := &service{
		cfg:    cfg,
		host:   deps.Host,
		view:   newViewController(deps.Window, cfg.ChromeOffset(), logger),
		sink:   deps.EventSink,
		store:  deps.BookmarkStore,
		logger: logger,
		tabs:   newRegistry(),
	}
	s.bookmarks = s.loadBookmarks()
	return s, nil
}

// Start opens the initial placeholder tab and publishes the bookmark list.
func (s *service) Start(ctx context.Context) error {
	if ctx == nil {
		return errors.New("missing context")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return schema.ErrClosed
	}
	if s.started {
		return nil
	}
	s.started = true
	if _, err := s.createTabLocked(ctx, "", true); err != nil {
		return err
	}
	s.broadcastBookmarksLocked(ctx)
	logx.Ctx(ctx).Info("session started", "bookmarks", len(s.bookmarks))
	return nil
}

func (s *service) NewTab(ctx context.Context, req schema.NewTabRequest) (schema.NewTabResponse, error) {
	if ctx == nil {
		return schema.NewTabResponse{}, errors.New("missing context")
	}
	activate := true
	if req.Activate != nil {
		activate = *req.Activate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return schema.NewTabResponse{}, schema.ErrClosed
	}
	index, err := s.createTabLocked(ctx, strings.TrimSpace(req.URL), activate)
	if err != nil {
		return schema.NewTabResponse{Index: -1, Status: schema.StatusIgnored}, err
	}
	return schema.NewTabResponse{Index: index, Status: schema.StatusApplied}, nil
}

func (s *service) SwitchTab(ctx context.Context, req schema.SwitchTabRequest) (schema.SwitchTabResponse, error) {
	if ctx == nil {
		return schema.SwitchTabResponse{}, errors.New("missing context")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok, err := s.switchActiveLocked(ctx, req.Index); !ok || err != nil {
		logx.Ctx(ctx).Debug("service tab switch ignored", "index", req.Index, "tabs", s.tabs.len(), "err", err)
		return schema.SwitchTabResponse{Status: schema.StatusIgnored}, nil
	}
	return schema.SwitchTabResponse{Status: schema.StatusApplied}, nil
}

func (s *service) CloseTab(ctx context.Context, req schema.CloseTabRequest) (schema.CloseTabResponse, error) {
	if ctx == nil {
		return schema.CloseTabResponse{}, errors.New("missing context")
	}
	log := logx.WithTab(ctx, req.Index)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tabs.valid(req.Index) {
		log.Debug("service tab close ignored", "tabs", s.tabs.len())
		return schema.CloseTabResponse{Status: schema.StatusIgnored}, nil
	}
	target := s.tabs.at(req.Index)
	_ = s.view.detach(ctx, target.surface)
	if err := target.surface.Destroy(ctx); err != nil {
		logx.WithSurface(log, target.surface.ID()).Warn("service surface destroy failed", "err", err)
	}
	_, wasActive, reactivate := s.tabs.remove(req.Index)

	switch {
	case s.tabs.len() == 0:
		s.emitTabsLocked()
	case wasActive:
		_, _ = s.switchActiveLocked(ctx, reactivate)
	default:
		s.emitTabsLocked()
		s.emitNavLocked(ctx)
	}
	log.Info("service tab closed", "was_active", wasActive, "active", s.tabs.active, "tabs", s.tabs.len())
	return schema.CloseTabResponse{Status: schema.StatusApplied}, nil
}

func (s *service) ReorderTabs(ctx context.Context, req schema.ReorderTabsRequest) (schema.ReorderTabsResponse, error) {
	if ctx == nil {
		return schema.ReorderTabsResponse{}, errors.New("missing context")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tabs.move(req.From, req.To) {
		logx.Ctx(ctx).Debug("service tab reorder ignored", "from", req.From, "to", req.To, "tabs", s.tabs.len())
		return schema.ReorderTabsResponse{Status: schema.StatusIgnored}, nil
	}
	s.emitTabsLocked()
	logx.Ctx(ctx).Debug("service tab reordered", "from", req.From, "to", req.To, "active", s.tabs.active)
	return schema.ReorderTabsResponse{Status: schema.StatusApplied}, nil
}

func (s *service) ListTabs(ctx context.Context, _ schema.ListTabsRequest) (schema.ListTabsResponse, error) {
	if ctx == nil {
		return schema.ListTabsResponse{}, errors.New("missing context")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	nav, ok := s.navSnapshotLocked(ctx)
	return schema.ListTabsResponse{Tabs: s.tabsSnapshotLocked(), Nav: nav, HasActive: ok}, nil
}

func (s *service) LoadURL(ctx context.Context, req schema.LoadURLRequest) (schema.LoadURLResponse, error) {
	if ctx == nil {
		return schema.LoadURLResponse{}, errors.New("missing context")
	}
	input := strings.TrimSpace(req.Input)
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.tabs.current()
	if current == nil || input == "" {
		return schema.LoadURLResponse{Status: schema.StatusIgnored}, nil
	}
	url := NormalizeURL(s.cfg, input)
	current.isNewTab = false
	current.url = url
	log := logx.WithURL(logx.WithTab(ctx, s.tabs.active), url)
	if err := current.surface.Load(ctx, url); err != nil {
		log.Warn("service load url failed", "err", err)
	} else {
		log.Debug("service load url")
	}
	return schema.LoadURLResponse{URL: url, Status: schema.StatusApplied}, nil
}

func (s *service) Navigate(ctx context.Context, req schema.NavigateRequest) (schema.NavigateResponse, error) {
	if ctx == nil {
		return schema.NavigateResponse{}, errors.New("missing context")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.tabs.current()
	if current == nil {
		return schema.NavigateResponse{Status: schema.StatusIgnored}, nil
	}
	surface := current.surface
	var err error
	switch req.Action {
	case schema.NavBack:
		if !surface.CanGoBack(ctx) {
			return schema.NavigateResponse{Status: schema.StatusIgnored}, nil
		}
		err = surface.Back(ctx)
	case schema.NavForward:
		if !surface.CanGoForward(ctx) {
			return schema.NavigateResponse{Status: schema.StatusIgnored}, nil
		}
		err = surface.Forward(ctx)
	case schema.NavReload:
		err = surface.Reload(ctx)
	default:
		logx.Ctx(ctx).Debug("service navigate ignored", "action", req.Action)
		return schema.NavigateResponse{Status: schema.StatusIgnored}, nil
	}
	if err != nil {
		logx.WithTab(ctx, s.tabs.active).Warn("service navigate failed", "action", req.Action, "err", err)
	}
	return schema.NavigateResponse{Status: schema.StatusApplied}, nil
}

func (s *service) ResizeWindow(ctx context.Context, req schema.ResizeWindowRequest) (schema.ResizeWindowResponse, error) {
	if ctx == nil {
		return schema.ResizeWindowResponse{}, errors.New("missing context")
	}
	if req.Width < 0 || req.Height < 0 {
		return schema.ResizeWindowResponse{Status: schema.StatusIgnored}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	bounds, err := s.view.resize(ctx, req.Width, req.Height)
	if err != nil {
		return schema.ResizeWindowResponse{Bounds: bounds, Status: schema.StatusIgnored}, nil
	}
	return schema.ResizeWindowResponse{Bounds: bounds, Status: schema.StatusApplied}, nil
}

// Dispatch applies a host event to the tab owning its surface.
func (s *service) Dispatch(ctx context.Context, event schema.HostEvent) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	index, t := s.tabs.find(event.Surface)
	log := logx.WithSurface(logx.WithTab(ctx, index), event.Surface)
	if t == nil {
		log.Trace("service host event ignored", "kind", event.Kind)
		return
	}
	log.Trace("service host event", "kind", event.Kind, "url", event.URL)

	switch event.Kind {
	case schema.HostTitleChanged:
		t.title = event.Title
		s.emitTabsLocked()
	case schema.HostNavigationStarted, schema.HostNavigationCommitted, schema.HostInPageNavigation:
		t.observe(s.eventURL(t, event))
		s.emitNavLocked(ctx)
	case schema.HostLoadFinished:
		t.observe(s.eventURL(t, event))
		s.emitTabsLocked()
		s.emitNavLocked(ctx)
	case schema.HostOpenRequest:
		url := event.URL
		if isBlankOpen(url) {
			url = ""
		}
		if _, err := s.createTabLocked(ctx, url, activateFor(event.Disposition)); err != nil {
			log.Warn("service open request failed", "err", err)
		}
	case schema.HostLinkClick:
		if event.Click == nil || !OpensInBackground(*event.Click) {
			log.Debug("service link click ignored")
			return
		}
		if _, err := s.createTabLocked(ctx, event.Click.Href, false); err != nil {
			log.Warn("service link click failed", "err", err)
		}
	default:
		log.Debug("service host event unknown", "kind", event.Kind)
	}
}

// Run drains host events until ctx is done or the event channel closes.
func (s *service) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("missing context")
	}
	events := s.host.Events()
	if events == nil {
		<-ctx.Done()
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				logx.Ctx(ctx).Debug("service host events closed")
				return nil
			}
			s.Dispatch(ctx, event)
		}
	}
}

// Close detaches and destroys every surface.
func (s *service) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	for _, t := range s.tabs.tabs {
		_ = s.view.detach(ctx, t.surface)
		if err := t.surface.Destroy(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	count := s.tabs.len()
	s.tabs = newRegistry()
	logx.Ctx(ctx).Info("session closed", "tabs", count)
	return errors.Join(errs...)
}

// createTabLocked appends a tab for url, or the placeholder when url is empty.
// The first tab of an empty session is always activated.
func (s *service) createTabLocked(ctx context.Context, url string, activate bool) (int, error) {
	surface, err := s.host.NewSurface(ctx)
	if err != nil {
		logx.Ctx(ctx).Warn("service tab create failed", "err", err)
		return -1, fmt.Errorf("%w: %v", schema.ErrHostUnavailable, err)
	}
	t := newTab(surface)
	index := s.tabs.append(t)
	log := logx.WithSurface(logx.WithTab(ctx, index), surface.ID())
	if url == "" {
		t.isNewTab = true
		if err := surface.LoadPlaceholder(ctx); err != nil {
			log.Warn("service placeholder load failed", "err", err)
		}
	} else {
		t.url = NormalizeURL(s.cfg, url)
		if err := surface.Load(ctx, t.url); err != nil {
			logx.WithURL(log, t.url).Warn("service tab load failed", "err", err)
		}
	}
	if !activate && s.tabs.active != -1 {
		s.emitTabsLocked()
	} else if activated, _ := s.switchActiveLocked(ctx, index); !activated {
		s.emitTabsLocked()
	}
	logx.WithURL(log, t.url).Info("service tab created", "activate", activate, "tabs", s.tabs.len())
	return index, nil
}

// switchActiveLocked swaps the mounted surface and publishes tabs and nav.
// It reports false for an invalid index, and also when the new surface could
// not be mounted and the previous active tab was re-attached instead. With no
// previous tab to fall back to, the index becomes active unmounted and the
// mount error is returned.
func (s *service) switchActiveLocked(ctx context.Context, index int) (bool, error) {
	next := s.tabs.at(index)
	if next == nil {
		return false, nil
	}
	current := s.tabs.current()
	if current != nil {
		_ = s.view.detach(ctx, current.surface)
	}
	if err := s.view.attach(ctx, next.surface); err != nil {
		log := logx.WithSurface(logx.WithTab(ctx, index), next.surface.ID())
		err = fmt.Errorf("%w: %v", schema.ErrHostUnavailable, err)
		if current != nil && current != next {
			if rerr := s.view.attach(ctx, current.surface); rerr != nil {
				log.Warn("service tab restore failed", "err", rerr)
			}
			log.Warn("service tab activate failed", "active", s.tabs.active, "err", err)
			return false, err
		}
		log.Warn("service tab activated unmounted", "err", err)
		s.tabs.active = index
		s.emitTabsLocked()
		s.emitNavLocked(ctx)
		return true, err
	}
	s.tabs.active = index
	s.emitTabsLocked()
	s.emitNavLocked(ctx)
	logx.WithTab(ctx, index).Debug("service tab activated")
	return true, nil
}

func (s *service) eventURL(t *tab, event schema.HostEvent) string {
	if event.URL != "" {
		return event.URL
	}
	return t.surface.URL()
}
