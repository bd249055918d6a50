package schema

// HostEventKind identifies an event emitted by the page host.
type HostEventKind string

const (
	// HostTitleChanged reports a new document title.
	HostTitleChanged HostEventKind = "title-changed"
	// HostNavigationStarted reports that a main frame navigation began.
	HostNavigationStarted HostEventKind = "navigation-started"
	// HostNavigationCommitted reports that a main frame navigation committed.
	HostNavigationCommitted HostEventKind = "navigation-committed"
	// HostInPageNavigation reports a same-document navigation.
	HostInPageNavigation HostEventKind = "in-page-navigation"
	// HostLoadFinished reports that the main frame finished loading.
	HostLoadFinished HostEventKind = "load-finished"
	// HostOpenRequest reports that the page asked to open a new top-level target.
	HostOpenRequest HostEventKind = "open-request"
	// HostLinkClick reports a link click intercepted inside the page.
	HostLinkClick HostEventKind = "link-click"
)

// HostEvent is a typed event from a surface. Only the fields relevant to Kind are set.
type HostEvent struct {
	Kind    HostEventKind `json:"kind"`
	Surface SurfaceID     `json:"surface"`
	Title   string        `json:"title,omitempty"`
	URL     string        `json:"url,omitempty"`
	// Disposition is set for open requests.
	Disposition OpenDisposition `json:"disposition,omitempty"`
	// Click is set for link clicks.
	Click *LinkClick `json:"click,omitempty"`
}

// LinkClick describes a click on an anchor element.
type LinkClick struct {
	Href   string `json:"href"`
	Button int    `json:"button"`
	Ctrl   bool   `json:"ctrlKey"`
	Meta   bool   `json:"metaKey"`
	Shift  bool   `json:"shiftKey"`
	Alt    bool   `json:"altKey"`
}

// DisplayEventType names an event pushed to the display layer.
type DisplayEventType string

const (
	// DisplayTabsUpdate carries a TabsUpdate.
	DisplayTabsUpdate DisplayEventType = "tabs-update"
	// DisplayNavUpdate carries a NavUpdate.
	DisplayNavUpdate DisplayEventType = "nav-update"
	// DisplayBookmarksUpdate carries the bookmark list.
	DisplayBookmarksUpdate DisplayEventType = "bookmarks-update"
)
