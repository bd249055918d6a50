package core

import (
	"context"

	"pkt.systems/tabula/schema"
)

// PageHost creates page surfaces and reports their events.
type PageHost interface {
	NewSurface(ctx context.Context) (Surface, error)
	// Events delivers host events for every surface the host created.
	Events() <-chan schema.HostEvent
}

// Surface is one isolated page owned by exactly one tab.
type Surface interface {
	ID() schema.SurfaceID
	Load(ctx context.Context, url string) error
	LoadPlaceholder(ctx context.Context) error
	// URL returns the last committed or loading URL.
	URL() string
	CanGoBack(ctx context.Context) bool
	CanGoForward(ctx context.Context) bool
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	Reload(ctx context.Context) error
	// SendBookmarks pushes the bookmark list into the page.
	SendBookmarks(ctx context.Context, list []schema.Bookmark) error
	Destroy(ctx context.Context) error
}

// Window is the content area surfaces are mounted into.
type Window interface {
	ContentSize() (width, height int)
	Mount(ctx context.Context, surface Surface, bounds schema.Bounds) error
	Unmount(ctx context.Context, surface Surface) error
}

// BookmarkStore persists the bookmark list.
type BookmarkStore interface {
	Load() ([]schema.Bookmark, bool, error)
	Save(list []schema.Bookmark) error
}
