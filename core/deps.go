package core

import "pkt.systems/pslog"

// ServiceDeps captures the collaborators of the session.
// Host and Window are required.
type ServiceDeps struct {
	Host          PageHost
	Window        Window
	EventSink     EventSink
	BookmarkStore BookmarkStore
	Logger        pslog.Logger
}
