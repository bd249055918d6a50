package core

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/tabula/schema"
)

// viewController keeps at most one surface mounted in the window.
type viewController struct {
	window  Window
	offset  int
	width   int
	height  int
	mounted Surface
	log     pslog.Logger
}

func newViewController(window Window, offset int, log pslog.Logger) *viewController {
	w, h := window.ContentSize()
	return &viewController{window: window, offset: offset, width: w, height: h, log: log}
}

// bounds is the chrome-free content rectangle for the current window size.
func (v *viewController) bounds() schema.Bounds {
	return contentBounds(v.width, v.height, v.offset)
}

func contentBounds(width, height, offset int) schema.Bounds {
	if width < 0 {
		width = 0
	}
	return schema.Bounds{
		X:      0,
		Y:      offset,
		Width:  width,
		Height: max(0, height-offset),
	}
}

func (v *viewController) attach(ctx context.Context, surface Surface) error {
	if surface == nil {
		return nil
	}
	if v.mounted != nil && v.mounted != surface {
		if err := v.detach(ctx, v.mounted); err != nil {
			return err
		}
	}
	b := v.bounds()
	if err := v.window.Mount(ctx, surface, b); err != nil {
		v.log.Warn("view attach failed", "surface", surface.ID(), "err", err)
		return err
	}
	v.mounted = surface
	v.log.Trace("view attached", "surface", surface.ID(), "y", b.Y, "width", b.Width, "height", b.Height)
	return nil
}

// detach unmounts surface only when it is the mounted one.
func (v *viewController) detach(ctx context.Context, surface Surface) error {
	if surface == nil || v.mounted != surface {
		return nil
	}
	v.mounted = nil
	if err := v.window.Unmount(ctx, surface); err != nil {
		v.log.Warn("view detach failed", "surface", surface.ID(), "err", err)
		return err
	}
	v.log.Trace("view detached", "surface", surface.ID())
	return nil
}

// resize records the new window size and re-bounds the mounted surface.
func (v *viewController) resize(ctx context.Context, width, height int) (schema.Bounds, error) {
	v.width, v.height = width, height
	b := v.bounds()
	if v.mounted == nil {
		return b, nil
	}
	if err := v.window.Mount(ctx, v.mounted, b); err != nil {
		v.log.Warn("view resize failed", "surface", v.mounted.ID(), "err", err)
		return b, err
	}
	return b, nil
}
