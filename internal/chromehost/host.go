// Package chromehost drives Chrome through the DevTools protocol. Each
// surface is a page target; CDP events are translated into host events.
package chromehost

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"pkt.systems/pslog"
	"pkt.systems/tabula/core"
	"pkt.systems/tabula/schema"
)

//go:embed newtab.html
var newTabPage []byte

const (
	defaultEventDepth = 512
	placeholderName   = "newtab.html"
)

// Config controls the browser process.
type Config struct {
	// ExecPath overrides browser discovery.
	ExecPath string
	Headless bool
	// UserDataDir is the browser profile; empty uses a temporary profile.
	UserDataDir string
	Width       int
	Height      int
	// DataDir receives the placeholder page.
	DataDir string
	// Flags are extra command line switches.
	Flags map[string]any
}

// Host owns the browser process and its page targets.
type Host struct {
	cfg           Config
	log           pslog.Logger
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	placeholder   string
	events        chan schema.HostEvent

	mu       sync.Mutex
	surfaces map[target.ID]*Surface
	dropped  uint64
	closed   bool
}

// New starts the browser and prepares the placeholder page.
func New(ctx context.Context, cfg Config, logger pslog.Logger) (*Host, error) {
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}
	if cfg.Width <= 0 {
		cfg.Width = 1200
	}
	if cfg.Height <= 0 {
		cfg.Height = 800
	}
	placeholder, err := writePlaceholder(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocatorOptions(cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) { logger.Debug("chrome " + fmt.Sprintf(format, args...)) }),
		chromedp.WithErrorf(func(format string, args ...any) { logger.Warn("chrome " + fmt.Sprintf(format, args...)) }),
	)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		logger.Error("chromehost browser start failed", "err", err)
		return nil, fmt.Errorf("%w: %v", schema.ErrHostUnavailable, err)
	}
	h := &Host{
		cfg:           cfg,
		log:           logger,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		placeholder:   placeholder,
		events:        make(chan schema.HostEvent, defaultEventDepth),
		surfaces:      make(map[target.ID]*Surface),
	}
	logger.Info("chromehost browser started", "headless", cfg.Headless, "width", cfg.Width, "height", cfg.Height)
	return h, nil
}

func allocatorOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.WindowSize(cfg.Width, cfg.Height))
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false), chromedp.Flag("hide-scrollbars", false))
	}
	if strings.TrimSpace(cfg.ExecPath) != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if strings.TrimSpace(cfg.UserDataDir) != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}
	for name, value := range cfg.Flags {
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

func writePlaceholder(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		var err error
		dir, err = os.MkdirTemp("", "tabula-")
		if err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	path := filepath.Join(dir, placeholderName)
	if err := os.WriteFile(path, newTabPage, 0o600); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return schema.PlaceholderScheme + filepath.ToSlash(abs), nil
}

// PlaceholderURL returns the file URL of the new tab page.
func (h *Host) PlaceholderURL() string {
	return h.placeholder
}

// NewSurface opens a new page target.
func (h *Host) NewSurface(ctx context.Context) (core.Surface, error) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return nil, errors.New("browser closed")
	}
	sctx, cancel := chromedp.NewContext(h.browserCtx)
	s := &Surface{host: h, ctx: sctx, cancel: cancel, opens: pendingOpens{}}
	chromedp.ListenTarget(sctx, s.onEvent)
	if err := chromedp.Run(sctx); err != nil {
		cancel()
		h.log.Warn("chromehost surface create failed", "err", err)
		return nil, fmt.Errorf("%w: %v", schema.ErrHostUnavailable, err)
	}
	id := chromedp.FromContext(sctx).Target.TargetID
	s.bind(id)
	h.mu.Lock()
	h.surfaces[id] = s
	h.mu.Unlock()

	if err := s.run(ctx, installActions()...); err != nil {
		h.log.Warn("chromehost surface install failed", "surface", id, "err", err)
	}
	h.log.Debug("chromehost surface created", "surface", id)
	return s, nil
}

// Events implements core.PageHost.
func (h *Host) Events() <-chan schema.HostEvent {
	return h.events
}

// Window returns the content area backed by this browser.
func (h *Host) Window() *Window {
	return &Window{host: h, width: h.cfg.Width, height: h.cfg.Height}
}

// Close shuts the browser down and stops event delivery.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	close(h.events)
	h.mu.Unlock()

	err := chromedp.Cancel(h.browserCtx)
	h.browserCancel()
	h.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		h.log.Warn("chromehost browser close failed", "err", err)
		return err
	}
	h.log.Info("chromehost browser closed", "dropped_events", h.droppedCount())
	return nil
}

// emit queues an event without blocking; CDP listeners run on the
// connection's read loop.
func (h *Host) emit(event schema.HostEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	select {
	case h.events <- event:
	default:
		h.dropped++
		h.log.Warn("chromehost event dropped", "kind", event.Kind, "surface", event.Surface, "dropped", h.dropped)
	}
}

func (h *Host) droppedCount() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

func (h *Host) forget(id target.ID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.surfaces, id)
}

func (h *Host) owns(id target.ID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.surfaces[id]
	return ok
}

// browserDo runs a browser-level command such as Target.closeTarget.
func (h *Host) browserDo(ctx context.Context, action chromedp.Action) error {
	c := chromedp.FromContext(h.browserCtx)
	if c == nil || c.Browser == nil {
		return chromedp.ErrInvalidContext
	}
	return action.Do(cdp.WithExecutor(ctx, c.Browser))
}

// denyOpen closes a target the page opened on its own.
func (h *Host) denyOpen(id target.ID) {
	if err := h.browserDo(h.browserCtx, target.CloseTarget(id)); err != nil {
		h.log.Debug("chromehost deny open failed", "target", id, "err", err)
	}
}
