package schema

// SurfaceID identifies a page surface owned by the page host.
type SurfaceID string

// Bookmark is a saved page. URL is the uniqueness key.
type Bookmark struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Bounds is a rectangle in window content coordinates.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NavAction is a history navigation requested by the display layer.
type NavAction string

const (
	// NavBack moves one entry back in the surface history.
	NavBack NavAction = "back"
	// NavForward moves one entry forward in the surface history.
	NavForward NavAction = "forward"
	// NavReload reloads the current entry.
	NavReload NavAction = "reload"
)

// OpenDisposition describes where a page asked for a new target to open.
type OpenDisposition string

const (
	// OpenForeground opens the target in a new tab and activates it.
	OpenForeground OpenDisposition = "foreground-tab"
	// OpenBackground opens the target in a new tab without activating it.
	OpenBackground OpenDisposition = "background-tab"
	// OpenNewWindow is a popup or new window request.
	OpenNewWindow OpenDisposition = "new-window"
)

// Status reports whether a command changed state.
type Status string

const (
	// StatusApplied means the command mutated state.
	StatusApplied Status = "applied"
	// StatusIgnored means the command was a silent no-op.
	StatusIgnored Status = "ignored"
)

// PlaceholderScheme is the URL scheme of the internal new tab page.
const PlaceholderScheme = "file://"

// DefaultTabTitle is the title of a freshly created tab.
const DefaultTabTitle = "New Tab"
