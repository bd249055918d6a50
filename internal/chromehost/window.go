package chromehost

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"pkt.systems/tabula/core"
	"pkt.systems/tabula/schema"
)

// Window shows one page target at a time and sizes its viewport to the
// content bounds.
type Window struct {
	host   *Host
	width  int
	height int

	mu      sync.Mutex
	mounted *Surface
}

// ContentSize implements core.Window.
func (w *Window) ContentSize() (int, int) {
	return w.width, w.height
}

// Mount raises the surface's target and applies the bounds as its viewport.
func (w *Window) Mount(ctx context.Context, surface core.Surface, bounds schema.Bounds) error {
	s, ok := surface.(*Surface)
	if !ok {
		return fmt.Errorf("chromehost: foreign surface %T", surface)
	}
	id, _, _ := s.identity()
	if err := w.host.browserDo(ctx, target.ActivateTarget(id)); err != nil {
		return err
	}
	err := s.run(ctx,
		emulation.SetDeviceMetricsOverride(int64(bounds.Width), int64(bounds.Height), 1, false),
		page.BringToFront(),
	)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.mounted = s
	w.mu.Unlock()
	return nil
}

// Unmount clears the viewport override of a mounted surface.
func (w *Window) Unmount(ctx context.Context, surface core.Surface) error {
	s, ok := surface.(*Surface)
	if !ok {
		return fmt.Errorf("chromehost: foreign surface %T", surface)
	}
	w.mu.Lock()
	if w.mounted != s {
		w.mu.Unlock()
		return nil
	}
	w.mounted = nil
	w.mu.Unlock()
	return s.run(ctx, emulation.ClearDeviceMetricsOverride())
}
