package core

import "pkt.systems/tabula/schema"

// EventSink receives display updates from the session.
// Calls happen while the session is locked; implementations must not block
// and must not call back into the Service.
type EventSink interface {
	OnTabsUpdate(update schema.TabsUpdate)
	OnNavUpdate(update schema.NavUpdate)
	OnBookmarksUpdate(update schema.BookmarksUpdate)
}
