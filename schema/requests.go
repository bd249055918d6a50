package schema

// Tab lifecycle.

// NewTabRequest describes a request to open a tab.
type NewTabRequest struct {
	// URL is optional; empty opens the placeholder page.
	URL string `json:"url"`
	// Activate defaults to true when nil.
	Activate *bool `json:"activate,omitempty"`
}

// NewTabResponse reports the index of the created tab.
type NewTabResponse struct {
	Index  int    `json:"index"`
	Status Status `json:"status"`
}

// SwitchTabRequest describes a request to activate the tab at Index.
type SwitchTabRequest struct {
	Index int `json:"index"`
}

// SwitchTabResponse reports whether the switch happened.
type SwitchTabResponse struct {
	Status Status `json:"status"`
}

// CloseTabRequest describes a request to close the tab at Index.
type CloseTabRequest struct {
	Index int `json:"index"`
}

// CloseTabResponse reports whether a tab was closed.
type CloseTabResponse struct {
	Status Status `json:"status"`
}

// ReorderTabsRequest moves the tab at From to position To.
type ReorderTabsRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// ReorderTabsResponse reports whether the order changed.
type ReorderTabsResponse struct {
	Status Status `json:"status"`
}

// ListTabsRequest describes a request for the current tab list.
type ListTabsRequest struct{}

// ListTabsResponse reports tabs and navigation state.
type ListTabsResponse struct {
	Tabs TabsUpdate `json:"tabs"`
	Nav  NavUpdate  `json:"nav"`
	// HasActive is false when there is no active tab and Nav is empty.
	HasActive bool `json:"hasActive"`
}

// Navigation.

// LoadURLRequest loads a URL or search query into the active tab.
type LoadURLRequest struct {
	Input string `json:"input"`
}

// LoadURLResponse reports the normalized URL that was loaded.
type LoadURLResponse struct {
	URL    string `json:"url"`
	Status Status `json:"status"`
}

// NavigateRequest asks the active tab to go back, forward, or reload.
type NavigateRequest struct {
	Action NavAction `json:"action"`
}

// NavigateResponse reports whether the action was delegated.
type NavigateResponse struct {
	Status Status `json:"status"`
}

// ResizeWindowRequest reports a new window content size.
type ResizeWindowRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ResizeWindowResponse reports the bounds given to the active surface.
type ResizeWindowResponse struct {
	Bounds Bounds `json:"bounds"`
	Status Status `json:"status"`
}

// Bookmarks.

// ListBookmarksRequest describes a request for the bookmark list.
type ListBookmarksRequest struct{}

// ListBookmarksResponse reports the bookmark list.
type ListBookmarksResponse struct {
	Bookmarks []Bookmark `json:"bookmarks"`
}

// AddBookmarkRequest bookmarks the active tab.
type AddBookmarkRequest struct{}

// AddBookmarkResponse reports the bookmark list after the add.
type AddBookmarkResponse struct {
	Bookmarks []Bookmark `json:"bookmarks"`
	Status    Status     `json:"status"`
}

// RemoveBookmarkRequest removes the bookmark with URL.
type RemoveBookmarkRequest struct {
	URL string `json:"url"`
}

// RemoveBookmarkResponse reports the bookmark list after the removal.
type RemoveBookmarkResponse struct {
	Bookmarks []Bookmark `json:"bookmarks"`
	Status    Status     `json:"status"`
}

// ImportBookmarksRequest merges a list of bookmarks into the saved list.
type ImportBookmarksRequest struct {
	Bookmarks []Bookmark `json:"bookmarks"`
}

// ImportBookmarksResponse reports how many entries were new.
type ImportBookmarksResponse struct {
	Bookmarks []Bookmark `json:"bookmarks"`
	Added     int        `json:"added"`
	Status    Status     `json:"status"`
}
