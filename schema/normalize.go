package schema

import "strings"

// ParseNavAction validates a navigation action. Unknown values report false.
func ParseNavAction(value string) (NavAction, bool) {
	switch NavAction(strings.TrimSpace(strings.ToLower(value))) {
	case NavBack:
		return NavBack, true
	case NavForward:
		return NavForward, true
	case NavReload:
		return NavReload, true
	default:
		return "", false
	}
}

// ParseOpenDisposition maps host disposition names onto OpenDisposition.
// Unknown values are treated as a foreground tab.
func ParseOpenDisposition(value string) OpenDisposition {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "background-tab", "background", "newbackgroundtab":
		return OpenBackground
	case "new-window", "newwindow", "popup":
		return OpenNewWindow
	default:
		return OpenForeground
	}
}

// HasTransferScheme reports whether raw starts with http:// or https://, ignoring case.
func HasTransferScheme(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// IsPlaceholderURL reports whether raw points at the internal placeholder scheme.
func IsPlaceholderURL(raw string) bool {
	return strings.HasPrefix(raw, PlaceholderScheme)
}
