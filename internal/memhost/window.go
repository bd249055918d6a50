package memhost

import (
	"context"
	"sync"

	"pkt.systems/tabula/core"
	"pkt.systems/tabula/schema"
)

// Window is an in-memory content area holding at most one surface.
type Window struct {
	mu      sync.Mutex
	width   int
	height  int
	mounted core.Surface
	bounds  schema.Bounds
}

// NewWindow constructs a window with the given content size.
func NewWindow(width, height int) *Window {
	return &Window{width: width, height: height}
}

// ContentSize implements core.Window.
func (w *Window) ContentSize() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// Mount implements core.Window.
func (w *Window) Mount(_ context.Context, surface core.Surface, bounds schema.Bounds) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.mounted = surface
	w.bounds = bounds
	return nil
}

// Unmount implements core.Window.
func (w *Window) Unmount(_ context.Context, surface core.Surface) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mounted == surface {
		w.mounted = nil
		w.bounds = schema.Bounds{}
	}
	return nil
}

// Mounted returns the mounted surface id and its bounds.
func (w *Window) Mounted() (schema.SurfaceID, schema.Bounds, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mounted == nil {
		return "", schema.Bounds{}, false
	}
	return w.mounted.ID(), w.bounds, true
}
