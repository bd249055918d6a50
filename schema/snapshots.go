package schema

// TabSnapshot is a read-only view of one tab for the display layer.
type TabSnapshot struct {
	Index    int    `json:"index"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	IsActive bool   `json:"isActive"`
}

// TabsUpdate is the full ordered tab list plus the active index (-1 when empty).
type TabsUpdate struct {
	Tabs    []TabSnapshot `json:"tabs"`
	Current int           `json:"current"`
}

// NavUpdate describes the navigation state of the active tab.
type NavUpdate struct {
	URL          string `json:"url"`
	CanGoBack    bool   `json:"canGoBack"`
	CanGoForward bool   `json:"canGoForward"`
}

// BookmarksUpdate carries the current bookmark list.
type BookmarksUpdate struct {
	Bookmarks []Bookmark `json:"bookmarks"`
}
