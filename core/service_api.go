package core

import (
	"context"

	"pkt.systems/tabula/schema"
)

// Service is the transport-agnostic API of the tab session.
type Service interface {
	Start(ctx context.Context) error
	NewTab(ctx context.Context, req schema.NewTabRequest) (schema.NewTabResponse, error)
	SwitchTab(ctx context.Context, req schema.SwitchTabRequest) (schema.SwitchTabResponse, error)
	CloseTab(ctx context.Context, req schema.CloseTabRequest) (schema.CloseTabResponse, error)
	ReorderTabs(ctx context.Context, req schema.ReorderTabsRequest) (schema.ReorderTabsResponse, error)
	ListTabs(ctx context.Context, req schema.ListTabsRequest) (schema.ListTabsResponse, error)
	LoadURL(ctx context.Context, req schema.LoadURLRequest) (schema.LoadURLResponse, error)
	Navigate(ctx context.Context, req schema.NavigateRequest) (schema.NavigateResponse, error)
	ResizeWindow(ctx context.Context, req schema.ResizeWindowRequest) (schema.ResizeWindowResponse, error)
	ListBookmarks(ctx context.Context, req schema.ListBookmarksRequest) (schema.ListBookmarksResponse, error)
	AddBookmark(ctx context.Context, req schema.AddBookmarkRequest) (schema.AddBookmarkResponse, error)
	RemoveBookmark(ctx context.Context, req schema.RemoveBookmarkRequest) (schema.RemoveBookmarkResponse, error)
	ImportBookmarks(ctx context.Context, req schema.ImportBookmarksRequest) (schema.ImportBookmarksResponse, error)
	// Dispatch applies one host event.
	Dispatch(ctx context.Context, event schema.HostEvent)
	// Run dispatches host events until ctx ends or the host closes its event channel.
	Run(ctx context.Context) error
	Close(ctx context.Context) error
}
